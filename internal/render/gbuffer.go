package render

import (
	"compositor/internal/gpu"
	"compositor/internal/scene"
)

// GBufferPass extracts one per-pixel attribute (view position, normal,
// reflection mask, specular color or albedo) for the screen-space passes.
// The five instances share this type and differ in program and bindings.
type GBufferPass struct {
	*Pass
}

func newGBufferPass(env *passEnv, program string, extra ...string) *GBufferPass {
	p := env.newPass(program, bindings(meshBindings, extra)...)
	p.Filter = Without(scene.TagEnvironment)
	return &GBufferPass{p}
}

func newPositionPass(env *passEnv) *GBufferPass { return newGBufferPass(env, "position") }
func newNormalPass(env *passEnv) *GBufferPass   { return newGBufferPass(env, "normal") }
func newMaskPass(env *passEnv) *GBufferPass     { return newGBufferPass(env, "mask", "u_is_reflective") }
func newSpecularPass(env *passEnv) *GBufferPass { return newGBufferPass(env, "specular", "u_specular") }
func newColorPass(env *passEnv) *GBufferPass    { return newGBufferPass(env, "color", albedoBindings...) }

func (p *GBufferPass) Render(ctx Context) {
	var records []Record
	p.eachObject(ctx, func(o *scene.Object, mesh *gpu.Mesh, m scene.ObjectMatrices) {
		u := objectUniforms(m)
		p.materialUniforms(o.Material, u)
		records = append(records, Record{Mesh: mesh, Uniforms: u, Label: o.Name})
	})
	p.Pipeline(records)
}

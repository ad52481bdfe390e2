package render

import (
	"compositor/internal/gpu"
	"compositor/internal/scene"
)

// transparentDepth leaves depth testing on but keeps translucent surfaces
// from hiding each other.
func transparentDepth() gpu.DepthState {
	return gpu.DepthState{Test: true, Write: false, Func: gpu.DepthLessEqual}
}

// TransparencyPass draws glass: the base image refracted through the
// surface, tinted and alpha blended.
type TransparencyPass struct {
	*Pass
}

func newTransparencyPass(env *passEnv) *TransparencyPass {
	p := env.newPass("glass", bindings(meshBindings,
		[]string{"u_base_texture", "u_tex_size", "u_color", "u_opacity", "u_ior"})...)
	p.Filter = Only(scene.TagTransparent)
	p.Depth = transparentDepth()
	p.Blend = gpu.AlphaBlend()
	return &TransparencyPass{p}
}

func (p *TransparencyPass) Render(ctx Context, base gpu.Texture) {
	var records []Record
	p.eachObject(ctx, func(o *scene.Object, mesh *gpu.Mesh, m scene.ObjectMatrices) {
		u := objectUniforms(m)
		p.materialUniforms(o.Material, u)
		u["u_base_texture"] = base
		u["u_tex_size"] = gpu.TexSize(base)
		records = append(records, Record{Mesh: mesh, Uniforms: u, Label: o.Name})
	})
	p.Pipeline(records)
}

// WaterPass draws water surfaces with animated wave normals, lit by the
// first light and alpha blended.
type WaterPass struct {
	*Pass
	ambient float32
}

func newWaterPass(env *passEnv, ambient float32) *WaterPass {
	p := env.newPass("water", bindings(meshBindings, albedoBindings, lightingBindings,
		[]string{"u_specular", "u_shininess", "u_opacity", "u_time", "u_wave_strength"})...)
	p.Filter = Only(scene.TagWater)
	p.Depth = transparentDepth()
	p.Blend = gpu.AlphaBlend()
	return &WaterPass{Pass: p, ambient: ambient}
}

func (p *WaterPass) Render(ctx Context) {
	light := ctx.lights()[0]
	var records []Record
	p.eachObject(ctx, func(o *scene.Object, mesh *gpu.Mesh, m scene.ObjectMatrices) {
		u := objectUniforms(m)
		p.materialUniforms(o.Material, u)
		lightUniforms(u, light, p.ambient)
		u["u_time"] = float32(ctx.State.Time)
		u["u_wave_strength"] = ctx.toggles().WaveStrength
		records = append(records, Record{Mesh: mesh, Uniforms: u, Label: o.Name})
	})
	p.Pipeline(records)
}

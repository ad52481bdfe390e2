package render

import (
	"compositor/internal/gpu"
	"compositor/internal/scene"

	"github.com/go-gl/mathgl/mgl32"
)

// PreProcessingPass lays down depth and black color for every object so
// the lit passes can accumulate on top with less-or-equal depth.
type PreProcessingPass struct {
	*Pass
}

func newPreProcessingPass(env *passEnv, filter Filter) *PreProcessingPass {
	p := env.newPass("pre_processing", meshBindings...)
	p.Filter = filter
	return &PreProcessingPass{p}
}

func (p *PreProcessingPass) Render(ctx Context) {
	var records []Record
	p.eachObject(ctx, func(o *scene.Object, mesh *gpu.Mesh, m scene.ObjectMatrices) {
		records = append(records, Record{Mesh: mesh, Uniforms: objectUniforms(m), Label: o.Name})
	})
	p.Pipeline(records)
}

// BackgroundPass draws environment objects unlit.
type BackgroundPass struct {
	*Pass
}

func newBackgroundPass(env *passEnv) *BackgroundPass {
	p := env.newPass("flat_color", bindings(meshBindings, albedoBindings)...)
	p.Filter = Only(scene.TagEnvironment)
	return &BackgroundPass{p}
}

func (p *BackgroundPass) Render(ctx Context) {
	var records []Record
	p.eachObject(ctx, func(o *scene.Object, mesh *gpu.Mesh, m scene.ObjectMatrices) {
		u := objectUniforms(m)
		p.materialUniforms(o.Material, u)
		records = append(records, Record{Mesh: mesh, Uniforms: u, Label: o.Name})
	})
	p.Pipeline(records)
}

// TerrainPass shades terrain with elevation bands, one additive draw per light.
type TerrainPass struct {
	*Pass
	ambient float32
}

func newTerrainPass(env *passEnv, ambient float32) *TerrainPass {
	p := env.newPass("terrain", bindings(meshBindings, lightingBindings, []string{
		"u_water_level", "u_water_color", "u_water_shininess",
		"u_grass_color", "u_grass_shininess", "u_peak_color", "u_peak_shininess",
		"u_specular",
	})...)
	p.Filter = Only(scene.TagTerrain)
	p.Blend = gpu.Additive()
	return &TerrainPass{Pass: p, ambient: ambient}
}

func (p *TerrainPass) Render(ctx Context) {
	lights := ctx.lights()
	var records []Record
	p.eachObject(ctx, func(o *scene.Object, mesh *gpu.Mesh, m scene.ObjectMatrices) {
		bands := o.Material.Terrain
		if bands == nil {
			bands = scene.Terrain.Terrain
		}
		for i, l := range lights {
			u := objectUniforms(m)
			u["u_water_level"] = bands.WaterLevel
			u["u_water_color"] = bands.WaterColor
			u["u_water_shininess"] = bands.WaterShininess
			u["u_grass_color"] = bands.GrassColor
			u["u_grass_shininess"] = bands.GrassShininess
			u["u_peak_color"] = bands.PeakColor
			u["u_peak_shininess"] = bands.PeakShininess
			u["u_specular"] = o.Material.Specular
			lightUniforms(u, l, firstOnly(i, p.ambient))
			records = append(records, Record{Mesh: mesh, Uniforms: u, Label: o.Name})
		}
	})
	p.Pipeline(records)
}

// ShadingPass is Blinn-Phong over every opaque object that opts in, summed
// over lights with additive blending.
type ShadingPass struct {
	*Pass
	ambient float32
}

func newShadingPass(env *passEnv, ambient float32) *ShadingPass {
	p := env.newPass("blinn_phong", bindings(meshBindings, albedoBindings, lightingBindings,
		[]string{"u_specular", "u_shininess"})...)
	p.Filter = newShadingFilter()
	p.Blend = gpu.Additive()
	return &ShadingPass{Pass: p, ambient: ambient}
}

// newShadingFilter admits opaque, non-environment objects that did not
// opt out of Blinn-Phong.
func newShadingFilter() Filter {
	return Without(scene.TagEnvironment, scene.TagNoBlinnPhong, scene.TagTransparent)
}

func (p *ShadingPass) Render(ctx Context) {
	lights := ctx.lights()
	var records []Record
	p.eachObject(ctx, func(o *scene.Object, mesh *gpu.Mesh, m scene.ObjectMatrices) {
		for i, l := range lights {
			u := objectUniforms(m)
			p.materialUniforms(o.Material, u)
			lightUniforms(u, l, firstOnly(i, p.ambient))
			records = append(records, Record{Mesh: mesh, Uniforms: u, Label: o.Name})
		}
	})
	p.Pipeline(records)
}

// firstOnly applies the ambient term on the first light of an additive sum.
func firstOnly(i int, ambient float32) float32 {
	if i == 0 {
		return ambient
	}
	return 0
}

// MirrorPass overlays reflective objects with an environment map captured
// by re-rendering the base stage from the object's position.
type MirrorPass struct {
	*Pass
	capture    *EnvCapture
	renderBase func(Context)
}

func newMirrorPass(env *passEnv, capture *EnvCapture, renderBase func(Context)) *MirrorPass {
	p := env.newPass("mirror", bindings(meshBindings, []string{"u_cube_env_map", "u_view_to_world"})...)
	p.Filter = Only(scene.TagReflective)
	return &MirrorPass{Pass: p, capture: capture, renderBase: renderBase}
}

// Render captures and draws each reflective object. Captures nested inside
// another capture are skipped, bounding reflections to one bounce.
func (p *MirrorPass) Render(ctx Context) {
	if ctx.Bounce >= 1 || !ctx.toggles().MirrorEnabled {
		return
	}
	viewToWorld := scene.ViewToWorld(ctx.Camera.View())
	objects := ctx.scene().Objects
	p.eachObject(ctx, func(o *scene.Object, mesh *gpu.Mesh, m scene.ObjectMatrices) {
		cube := p.capture.Capture(o.Translation, clearColor, objects, func(cam *scene.CubeFaceCamera) {
			p.renderBase(Context{
				State:   ctx.State,
				Camera:  cam,
				Exclude: o.ID,
				Bounce:  ctx.Bounce + 1,
			})
		})
		u := objectUniforms(m)
		u["u_cube_env_map"] = cube
		u["u_view_to_world"] = viewToWorld
		p.Pipeline([]Record{{Mesh: mesh, Uniforms: u, Label: o.Name}})
	})
}

// ShadowsPass accumulates, per light, a white mask where a surface is
// farther from the light than the nearest occluder recorded in a cube
// distance map.
type ShadowsPass struct {
	*Pass
	depth     *PreProcessingPass
	shadowMap *Pass
	capture   *EnvCapture
}

func newShadowsPass(env *passEnv, capture *EnvCapture) *ShadowsPass {
	casters := Without(scene.TagEnvironment)

	p := env.newPass("shadows", bindings(meshBindings,
		[]string{"u_cube_shadowmap", "u_light_position", "u_view_to_world"})...)
	p.Filter = casters
	p.Blend = gpu.Additive()

	sm := env.newPass("shadow_map", meshBindings...)
	sm.Filter = casters

	return &ShadowsPass{
		Pass:      p,
		depth:     newPreProcessingPass(env, casters),
		shadowMap: sm,
		capture:   capture,
	}
}

func (p *ShadowsPass) Render(ctx Context) {
	p.depth.Render(ctx)

	sc := ctx.scene()
	viewToWorld := scene.ViewToWorld(ctx.Camera.View())
	far := p.capture.Far
	lights := ctx.lights()
	for i, light := range sc.Lights {
		cube := p.capture.Capture(light.Position, mgl32.Vec4{far, far, far, 1}, sc.Objects, func(cam *scene.CubeFaceCamera) {
			var records []Record
			p.shadowMap.eachObject(Context{State: ctx.State, Camera: cam}, func(o *scene.Object, mesh *gpu.Mesh, m scene.ObjectMatrices) {
				records = append(records, Record{Mesh: mesh, Uniforms: objectUniforms(m), Label: o.Name})
			})
			p.shadowMap.Pipeline(records)
		})

		var records []Record
		p.eachObject(ctx, func(o *scene.Object, mesh *gpu.Mesh, m scene.ObjectMatrices) {
			u := objectUniforms(m)
			u["u_cube_shadowmap"] = cube
			u["u_light_position"] = lights[i].Position
			u["u_view_to_world"] = viewToWorld
			records = append(records, Record{Mesh: mesh, Uniforms: u, Label: o.Name})
		})
		p.Pipeline(records)
	}
}

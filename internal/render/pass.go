package render

import (
	"image"

	"compositor/internal/gpu"
	"compositor/internal/logging"
	"compositor/internal/resources"
	"compositor/internal/scene"
)

// Resources resolves meshes and images by name.
type Resources interface {
	Mesh(name string) (*gpu.Mesh, error)
	Image(name string) (image.Image, error)
}

// Record is one draw: a mesh and the uniforms bound for it.
type Record struct {
	Mesh     *gpu.Mesh
	Uniforms gpu.Uniforms
	Label    string
}

// Filter decides from a material's tags whether a pass draws the object.
type Filter func(tags scene.Tags) bool

// Only keeps objects carrying tag.
func Only(tag scene.Tag) Filter {
	return func(t scene.Tags) bool { return t.Has(tag) }
}

// Without drops objects carrying any of tags.
func Without(tags ...scene.Tag) Filter {
	return func(t scene.Tags) bool { return !t.HasAny(tags...) }
}

// Pass binds one program and submits records with fixed depth and blend
// state. Concrete passes embed it and differ only in configuration.
type Pass struct {
	name      string
	program   gpu.Program
	device    gpu.Device
	resources Resources
	bindings  []string

	Depth  gpu.DepthState
	Blend  gpu.BlendState
	Filter Filter
}

// passEnv is what every pass is built from.
type passEnv struct {
	device    gpu.Device
	resources Resources
	programs  map[string]gpu.Program
}

// newPass configures a pass for program with the given required uniforms.
func (e *passEnv) newPass(program string, bindings ...string) *Pass {
	p, ok := e.programs[program]
	if !ok {
		panic(&ConfigurationError{Kind: "program", Name: program})
	}
	return &Pass{
		name:      program,
		program:   p,
		device:    e.device,
		resources: e.resources,
		bindings:  bindings,
		Depth:     gpu.DefaultDepth(),
		Blend:     gpu.NoBlend(),
	}
}

// Name returns the program name of the pass.
func (p *Pass) Name() string { return p.name }

// Includes reports whether the filter admits material m.
func (p *Pass) Includes(m *scene.Material) bool {
	if p.Filter == nil {
		return true
	}
	var tags scene.Tags
	if m != nil {
		tags = m.Tags
	}
	return p.Filter(tags)
}

// Pipeline issues one draw per record into the bound framebuffer.
func (p *Pass) Pipeline(records []Record) {
	for _, rec := range records {
		for _, name := range p.bindings {
			if _, ok := rec.Uniforms[name]; !ok {
				panic(&ConfigurationError{Kind: "uniform", Name: p.name + "." + name})
			}
		}
		p.device.Draw(gpu.DrawCommand{
			Program:  p.program,
			Mesh:     rec.Mesh,
			Uniforms: rec.Uniforms,
			Depth:    p.Depth,
			Blend:    p.Blend,
			Label:    rec.Label,
		})
	}
}

func (p *Pass) mesh(name string) *gpu.Mesh {
	m, err := p.resources.Mesh(name)
	if err != nil {
		panic(&ConfigurationError{Kind: "mesh", Name: name})
	}
	return m
}

func (p *Pass) image(name string) image.Image {
	img, err := p.resources.Image(name)
	if err != nil {
		panic(&ConfigurationError{Kind: "image", Name: name})
	}
	return img
}

// eachObject calls fn for every object the pass draws under ctx. The filter
// runs before anything else is resolved for the object.
func (p *Pass) eachObject(ctx Context, fn func(o *scene.Object, mesh *gpu.Mesh, m scene.ObjectMatrices)) {
	for _, o := range ctx.scene().Objects {
		if ctx.excluded(o) || !p.Includes(o.Material) {
			continue
		}
		mesh := p.mesh(o.MeshRef)
		m, ok := ctx.Camera.Matrices(o)
		if !ok {
			logging.Warn("skipping object", "err", &MissingTransformError{Pass: p.name, Object: o.Name})
			continue
		}
		fn(o, mesh, m)
	}
}

// fullscreen draws the screen quad once with u.
func (p *Pass) fullscreen(u gpu.Uniforms) {
	p.Pipeline([]Record{{Mesh: p.mesh(resources.MeshFullscreenQuad), Uniforms: u, Label: p.name}})
}

func objectUniforms(m scene.ObjectMatrices) gpu.Uniforms {
	return gpu.Uniforms{
		"mat_model_view_projection": m.ModelViewProjection,
		"mat_model_view":            m.ModelView,
		"mat_normals_model_view":    m.NormalsModelView,
	}
}

var (
	meshBindings     = []string{"mat_model_view_projection", "mat_model_view", "mat_normals_model_view"}
	albedoBindings   = []string{"u_color", "u_use_texture", "u_texture"}
	lightingBindings = []string{"u_light_position", "u_light_color", "u_ambient"}
)

func bindings(groups ...[]string) []string {
	var out []string
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// materialUniforms binds the surface parameters of m into u.
func (p *Pass) materialUniforms(m *scene.Material, u gpu.Uniforms) {
	if m == nil {
		panic(&ConfigurationError{Kind: "material", Name: "<nil>"})
	}
	u["u_color"] = m.Color
	u["u_specular"] = m.Specular
	u["u_shininess"] = m.Shininess
	u["u_opacity"] = m.Opacity
	u["u_ior"] = m.IOR
	u["u_is_reflective"] = gpu.FloatFlag(m.Reflective)
	if m.Texture != "" {
		u["u_texture"] = p.image(m.Texture)
		u["u_use_texture"] = float32(1)
	} else {
		u["u_texture"] = p.image(resources.ImageWhite)
		u["u_use_texture"] = float32(0)
	}
}

func lightUniforms(u gpu.Uniforms, l viewLight, ambient float32) {
	u["u_light_position"] = l.Position
	u["u_light_color"] = l.Color
	u["u_ambient"] = ambient
}

package softgpu

import (
	"image"
	"math"

	"compositor/internal/gpu"

	"github.com/go-gl/mathgl/mgl32"
)

// Fragment is the input of a fragment kernel: the interpolated varyings of
// basic.vert, the window position of the pixel center and the draw uniforms.
type Fragment struct {
	Coord  mgl32.Vec2
	Model  mgl32.Vec3
	View   mgl32.Vec3
	Normal mgl32.Vec3
	UV     mgl32.Vec2
	U      gpu.Uniforms

	dev *Device
}

// Kernel computes the color of one fragment.
type Kernel func(f *Fragment) mgl32.Vec4

// Sample reads the 2D texture or image bound to name at uv.
func (f *Fragment) Sample(name string, uv mgl32.Vec2) mgl32.Vec4 {
	switch v := f.U[name].(type) {
	case *texture:
		return v.sample(uv)
	case image.Image:
		return f.dev.upload(v).sample(uv)
	}
	return mgl32.Vec4{}
}

// SampleCube reads the cube texture bound to name in direction dir.
func (f *Fragment) SampleCube(name string, dir mgl32.Vec3) mgl32.Vec4 {
	if c, ok := f.U[name].(*cubeTexture); ok {
		return c.sample(dir)
	}
	return mgl32.Vec4{}
}

// ScreenUV is gl_FragCoord.xy / u_tex_size.
func (f *Fragment) ScreenUV() mgl32.Vec2 {
	size := f.U.Vec2("u_tex_size")
	if size.X() == 0 || size.Y() == 0 {
		return mgl32.Vec2{}
	}
	return mgl32.Vec2{f.Coord.X() / size.X(), f.Coord.Y() / size.Y()}
}

func builtinKernels() map[string]Kernel {
	return map[string]Kernel{
		"pre_processing":   preProcessing,
		"flat_color":       flatColor,
		"terrain":          terrain,
		"blinn_phong":      blinnPhong,
		"mirror":           mirror,
		"shadow_map":       shadowMap,
		"shadows":          shadows,
		"glass":            glass,
		"water":            water,
		"position":         position,
		"normal":           normal,
		"mask":             mask,
		"specular":         specular,
		"color":            colorKernel,
		"ssr":              ssr,
		"reflection_color": reflectionColor,
		"box_blur":         boxBlur,
		"reflection":       reflection,
		"map_mixer":        mapMixer,
		"base_combine":     baseCombine,
		"bloom_extract":    bloomExtract,
		"bloom_blur":       bloomBlur,
		"bloom":            bloom,
		"sharpen":          sharpen,
		"gamma":            gamma,
	}
}

func preProcessing(*Fragment) mgl32.Vec4 {
	return mgl32.Vec4{0, 0, 0, 1}
}

func albedo(f *Fragment) mgl32.Vec3 {
	if f.U.Float("u_use_texture") > 0.5 {
		return f.Sample("u_texture", f.UV).Vec3()
	}
	return f.U.Vec3("u_color")
}

func flatColor(f *Fragment) mgl32.Vec4 {
	return albedo(f).Vec4(1)
}

// lit is the Blinn-Phong contribution of the light bound to the draw.
func lit(f *Fragment, n, base, spec mgl32.Vec3, shininess float32) mgl32.Vec3 {
	v := normalize(f.View.Mul(-1))
	l := normalize(f.U.Vec3("u_light_position").Sub(f.View))
	h := normalize(l.Add(v))
	diffuse := max(n.Dot(l), 0)
	var s float32
	if diffuse > 0 {
		s = pow(max(n.Dot(h), 0), shininess)
	}
	lc := f.U.Vec3("u_light_color")
	c := mul3(lc, base.Mul(diffuse).Add(spec.Mul(s)))
	return c.Add(base.Mul(f.U.Float("u_ambient")))
}

func blinnPhong(f *Fragment) mgl32.Vec4 {
	n := normalize(f.Normal)
	c := lit(f, n, albedo(f), f.U.Vec3("u_specular"), f.U.Float("u_shininess"))
	return c.Vec4(1)
}

func terrain(f *Fragment) mgl32.Vec4 {
	n := normalize(f.Normal)
	var base mgl32.Vec3
	var shininess float32
	if f.Model.Z() <= f.U.Float("u_water_level")+1e-4 {
		base = f.U.Vec3("u_water_color")
		shininess = f.U.Float("u_water_shininess")
	} else {
		t := mgl32.Clamp((f.Model.Z()-f.U.Float("u_water_level"))*2, 0, 1)
		base = mix3(f.U.Vec3("u_grass_color"), f.U.Vec3("u_peak_color"), t)
		shininess = mix(f.U.Float("u_grass_shininess"), f.U.Float("u_peak_shininess"), t)
	}
	return lit(f, n, base, f.U.Vec3("u_specular"), shininess).Vec4(1)
}

func mirror(f *Fragment) mgl32.Vec4 {
	r := reflect(normalize(f.View), normalize(f.Normal))
	dir := f.U.Mat3("u_view_to_world").Mul3x1(r)
	return f.SampleCube("u_cube_env_map", dir).Vec3().Vec4(1)
}

func shadowMap(f *Fragment) mgl32.Vec4 {
	return mgl32.Vec4{f.View.Len(), 0, 0, 1}
}

func shadows(f *Fragment) mgl32.Vec4 {
	toFrag := f.View.Sub(f.U.Vec3("u_light_position"))
	dir := f.U.Mat3("u_view_to_world").Mul3x1(toFrag)
	stored := f.SampleCube("u_cube_shadowmap", dir).X()
	var occ float32
	if toFrag.Len() > stored*1.01 {
		occ = 1
	}
	return mgl32.Vec4{occ, occ, occ, 0}
}

func glass(f *Fragment) mgl32.Vec4 {
	n := normalize(f.Normal)
	i := normalize(f.View)
	refr := refract(i, n, 1/max(f.U.Float("u_ior"), 1e-3))
	uv := f.ScreenUV().Add(mgl32.Vec2{refr.X(), refr.Y()}.Mul(0.05))
	behind := f.Sample("u_base_texture", uv).Vec3()
	tint := f.U.Vec3("u_color")
	fresnel := pow(1-max(i.Mul(-1).Dot(n), 0), 3)
	c := mix3(mul3(behind, tint), tint, fresnel)
	return c.Vec4(f.U.Float("u_opacity"))
}

func water(f *Fragment) mgl32.Vec4 {
	t := f.U.Float("u_time")
	s := f.U.Float("u_wave_strength") * 0.15
	p := f.Model
	wave := mgl32.Vec3{
		sin(p.X()*24 + t*2),
		cos(p.Y()*24 + t*1.5),
		0,
	}.Mul(s)
	n := normalize(f.Normal.Add(wave))
	c := lit(f, n, albedo(f), f.U.Vec3("u_specular"), f.U.Float("u_shininess"))
	return c.Vec4(f.U.Float("u_opacity"))
}

func position(f *Fragment) mgl32.Vec4 { return f.View.Vec4(1) }

func normal(f *Fragment) mgl32.Vec4 { return normalize(f.Normal).Vec4(1) }

func mask(f *Fragment) mgl32.Vec4 {
	return mgl32.Vec4{f.U.Float("u_is_reflective"), 0, 0, 1}
}

func specular(f *Fragment) mgl32.Vec4 { return f.U.Vec3("u_specular").Vec4(1) }

func colorKernel(f *Fragment) mgl32.Vec4 { return albedo(f).Vec4(1) }

const (
	ssrSteps = 64
	ssrEps   = 1e-4
)

// ssr marches the reflected view ray through the position buffer and
// writes the screen uv of the first hit in rg and 1 in b.
func ssr(f *Fragment) mgl32.Vec4 {
	if f.U.Float("u_enabled") < 0.5 {
		return mgl32.Vec4{}
	}
	miss := mgl32.Vec4{0, 0, 0, 1}
	uv := f.ScreenUV()
	if f.Sample("u_mask", uv).X() < 0.5 {
		return miss
	}
	pos := f.Sample("u_position", uv).Vec3()
	if pos.Z() >= -ssrEps {
		return miss
	}
	n := f.Sample("u_normal", uv).Vec3()
	if n.Len() == 0 {
		return miss
	}
	r := reflect(normalize(pos), normalize(n))
	proj := f.U.Mat4("u_projection")
	step := f.U.Float("u_max_distance") / ssrSteps
	thickness := max(2*step, 0.1)
	for i := 1; i <= ssrSteps; i++ {
		p := pos.Add(r.Mul(step * float32(i)))
		if p.Z() >= 0 {
			break
		}
		clip := proj.Mul4x1(p.Vec4(1))
		if clip.W() <= 0 {
			break
		}
		hit := mgl32.Vec2{clip.X()/clip.W()*0.5 + 0.5, clip.Y()/clip.W()*0.5 + 0.5}
		if hit.X() < 0 || hit.X() > 1 || hit.Y() < 0 || hit.Y() > 1 {
			break
		}
		scene := f.Sample("u_position", hit).Vec3()
		if scene.Z() >= -ssrEps {
			continue
		}
		if diff := scene.Z() - p.Z(); diff > 0 && diff < thickness {
			return mgl32.Vec4{hit.X(), hit.Y(), 1, 1}
		}
	}
	return miss
}

func reflectionColor(f *Fragment) mgl32.Vec4 {
	s := f.Sample("u_uv_texture", f.ScreenUV())
	if s.Z() < 0.5 {
		return mgl32.Vec4{0, 0, 0, 1}
	}
	return f.Sample("u_color_texture", mgl32.Vec2{s.X(), s.Y()}).Vec3().Vec4(1)
}

func boxBlur(f *Fragment) mgl32.Vec4 {
	size := f.U.Vec2("u_tex_size")
	uv := f.ScreenUV()
	radius := int(f.U.Float("u_radius"))
	var sum mgl32.Vec3
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			off := mgl32.Vec2{float32(dx) / size.X(), float32(dy) / size.Y()}
			sum = sum.Add(f.Sample("u_texture", uv.Add(off)).Vec3())
		}
	}
	n := float32((2*radius + 1) * (2*radius + 1))
	return sum.Mul(1 / n).Vec4(1)
}

func reflection(f *Fragment) mgl32.Vec4 {
	uv := f.ScreenUV()
	c := f.Sample("u_color_texture", uv).Vec3()
	b := f.Sample("u_blur_texture", uv).Vec3()
	m := f.Sample("u_mask", uv).X()
	return mix3(c, b, f.U.Float("u_blur_mix")).Mul(m).Vec4(1)
}

func mapMixer(f *Fragment) mgl32.Vec4 {
	uv := f.ScreenUV()
	base := f.Sample("u_base", uv).Vec3()
	shadow := mgl32.Clamp(f.Sample("u_shadows", uv).X(), 0, 1)
	return base.Mul(1 - f.U.Float("u_darkness")*shadow).Vec4(1)
}

func baseCombine(f *Fragment) mgl32.Vec4 {
	uv := f.ScreenUV()
	base := f.Sample("u_base", uv).Vec3()
	refl := f.Sample("u_reflection", uv).Vec3()
	spec := f.Sample("u_specular", uv).Vec3()
	transp := f.Sample("u_transparency", uv).Vec3()
	return base.Add(mul3(refl, spec)).Add(transp).Vec4(1)
}

var luminance = mgl32.Vec3{0.2126, 0.7152, 0.0722}

func bloomExtract(f *Fragment) mgl32.Vec4 {
	c := f.Sample("u_texture", f.ScreenUV()).Vec3()
	if c.Dot(luminance) > f.U.Float("u_threshold") {
		return c.Vec4(1)
	}
	return mgl32.Vec4{0, 0, 0, 1}
}

var gaussian = [5]float32{0.227027, 0.1945946, 0.1216216, 0.054054, 0.016216}

func bloomBlur(f *Fragment) mgl32.Vec4 {
	size := f.U.Vec2("u_tex_size")
	uv := f.ScreenUV()
	off := mgl32.Vec2{0, 1 / size.Y()}
	if f.U.Float("u_horizontal") > 0.5 {
		off = mgl32.Vec2{1 / size.X(), 0}
	}
	sum := f.Sample("u_texture", uv).Vec3().Mul(gaussian[0])
	for i := 1; i < len(gaussian); i++ {
		d := off.Mul(float32(i))
		sum = sum.Add(f.Sample("u_texture", uv.Add(d)).Vec3().Mul(gaussian[i]))
		sum = sum.Add(f.Sample("u_texture", uv.Sub(d)).Vec3().Mul(gaussian[i]))
	}
	return sum.Vec4(1)
}

func bloom(f *Fragment) mgl32.Vec4 {
	uv := f.ScreenUV()
	c := f.Sample("u_texture", uv)
	if f.U.Float("u_enabled") < 0.5 {
		return c
	}
	b := f.Sample("u_blur", uv).Vec3()
	return c.Vec3().Add(b.Mul(f.U.Float("u_intensity"))).Vec4(c.W())
}

func sharpen(f *Fragment) mgl32.Vec4 {
	uv := f.ScreenUV()
	c := f.Sample("u_texture", uv)
	if f.U.Float("u_enabled") < 0.5 {
		return c
	}
	size := f.U.Vec2("u_tex_size")
	dx := mgl32.Vec2{1 / size.X(), 0}
	dy := mgl32.Vec2{0, 1 / size.Y()}
	n := f.Sample("u_texture", uv.Add(dy)).Vec3()
	s := f.Sample("u_texture", uv.Sub(dy)).Vec3()
	e := f.Sample("u_texture", uv.Add(dx)).Vec3()
	w := f.Sample("u_texture", uv.Sub(dx)).Vec3()
	rgb := c.Vec3().Mul(5).Sub(n).Sub(s).Sub(e).Sub(w)
	return rgb.Vec4(c.W())
}

func gamma(f *Fragment) mgl32.Vec4 {
	c := f.Sample("u_texture", f.ScreenUV())
	if f.U.Float("u_enabled") < 0.5 {
		return c
	}
	inv := 1 / f.U.Float("u_gamma")
	return mgl32.Vec4{
		pow(max(c[0], 0), inv),
		pow(max(c[1], 0), inv),
		pow(max(c[2], 0), inv),
		c[3],
	}
}

func normalize(v mgl32.Vec3) mgl32.Vec3 {
	l := v.Len()
	if l == 0 {
		return v
	}
	return v.Mul(1 / l)
}

func reflect(i, n mgl32.Vec3) mgl32.Vec3 {
	return i.Sub(n.Mul(2 * n.Dot(i)))
}

func refract(i, n mgl32.Vec3, eta float32) mgl32.Vec3 {
	d := n.Dot(i)
	k := 1 - eta*eta*(1-d*d)
	if k < 0 {
		return mgl32.Vec3{}
	}
	return i.Mul(eta).Sub(n.Mul(eta*d + float32(math.Sqrt(float64(k)))))
}

func mul3(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

func mix(a, b, t float32) float32 { return a + (b-a)*t }

func mix3(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

func pow(x, y float32) float32 { return float32(math.Pow(float64(x), float64(y))) }
func sin(x float32) float32    { return float32(math.Sin(float64(x))) }
func cos(x float32) float32    { return float32(math.Cos(float64(x))) }

package glgpu

import (
	"image"
	"maps"
	"slices"

	"compositor/internal/gpu"
	"compositor/internal/logging"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/draw"
)

// applyUniforms sets every uniform of u on the bound program p. Texture
// units are handed out in name order.
func (d *Device) applyUniforms(p *program, u gpu.Uniforms) {
	var unit uint32
	for _, name := range slices.Sorted(maps.Keys(u)) {
		loc := p.location(name)
		if loc < 0 {
			continue
		}
		switch v := u[name].(type) {
		case float32:
			gl.Uniform1f(loc, v)
		case int32:
			gl.Uniform1i(loc, v)
		case bool:
			gl.Uniform1f(loc, gpu.FloatFlag(v))
		case mgl32.Vec2:
			gl.Uniform2fv(loc, 1, &v[0])
		case mgl32.Vec3:
			gl.Uniform3fv(loc, 1, &v[0])
		case mgl32.Vec4:
			gl.Uniform4fv(loc, 1, &v[0])
		case mgl32.Mat3:
			gl.UniformMatrix3fv(loc, 1, false, &v[0])
		case mgl32.Mat4:
			gl.UniformMatrix4fv(loc, 1, false, &v[0])
		case *texture:
			d.bindSampler(loc, &unit, gl.TEXTURE_2D, v.id)
		case *cubeTexture:
			d.bindSampler(loc, &unit, gl.TEXTURE_CUBE_MAP, v.id)
		case image.Image:
			d.bindSampler(loc, &unit, gl.TEXTURE_2D, d.upload(v).id)
		default:
			logging.Warn("unsupported uniform type", "program", p.name, "uniform", name)
		}
	}
}

func (d *Device) bindSampler(loc int32, unit *uint32, kind, id uint32) {
	gl.ActiveTexture(gl.TEXTURE0 + *unit)
	gl.BindTexture(kind, id)
	gl.Uniform1i(loc, int32(*unit))
	*unit++
}

// upload converts img to an RGBA8 texture with its top row at v = 1, once.
func (d *Device) upload(img image.Image) *texture {
	if t, ok := d.images[img]; ok {
		return t
	}
	b := img.Bounds()
	nrgba := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)

	// GL expects the bottom row first.
	stride := nrgba.Stride
	flipped := make([]uint8, len(nrgba.Pix))
	for y := 0; y < b.Dy(); y++ {
		copy(flipped[(b.Dy()-1-y)*stride:(b.Dy()-y)*stride], nrgba.Pix[y*stride:(y+1)*stride])
	}

	t := &texture{w: b.Dx(), h: b.Dy(), opts: gpu.TargetOptions{Wrap: gpu.WrapRepeat, Type: gpu.TypeUnsignedByte}}
	gl.GenTextures(1, &t.id)
	gl.BindTexture(gl.TEXTURE_2D, t.id)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(t.w), int32(t.h), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(flipped))
	gl.BindTexture(gl.TEXTURE_2D, 0)

	d.images[img] = t
	return t
}

package gpu

import (
	"image"

	"github.com/go-gl/mathgl/mgl32"
)

// Uniforms maps uniform names to values. Supported values: float32, int32,
// bool, mgl32.Vec2/Vec3/Vec4, mgl32.Mat3/Mat4, Texture, CubeTexture and
// image.Image (uploaded by the device on first use).
type Uniforms map[string]any

// Float returns a float uniform; bools read as 0 or 1.
func (u Uniforms) Float(name string) float32 {
	switch v := u[name].(type) {
	case float32:
		return v
	case int32:
		return float32(v)
	case bool:
		if v {
			return 1
		}
	}
	return 0
}

func (u Uniforms) Vec2(name string) mgl32.Vec2 {
	v, _ := u[name].(mgl32.Vec2)
	return v
}

func (u Uniforms) Vec3(name string) mgl32.Vec3 {
	v, _ := u[name].(mgl32.Vec3)
	return v
}

func (u Uniforms) Vec4(name string) mgl32.Vec4 {
	v, _ := u[name].(mgl32.Vec4)
	return v
}

// Mat3 returns a mat3 uniform, identity when unset.
func (u Uniforms) Mat3(name string) mgl32.Mat3 {
	if v, ok := u[name].(mgl32.Mat3); ok {
		return v
	}
	return mgl32.Ident3()
}

// Mat4 returns a mat4 uniform, identity when unset.
func (u Uniforms) Mat4(name string) mgl32.Mat4 {
	if v, ok := u[name].(mgl32.Mat4); ok {
		return v
	}
	return mgl32.Ident4()
}

func (u Uniforms) Texture(name string) Texture {
	v, _ := u[name].(Texture)
	return v
}

func (u Uniforms) Cube(name string) CubeTexture {
	v, _ := u[name].(CubeTexture)
	return v
}

func (u Uniforms) Image(name string) image.Image {
	v, _ := u[name].(image.Image)
	return v
}

// TexSize returns the size of t as a vec2, as bound to u_tex_size.
func TexSize(t Texture) mgl32.Vec2 {
	w, h := t.Size()
	return mgl32.Vec2{float32(w), float32(h)}
}

// FloatFlag encodes a toggle as 1 or 0.
func FloatFlag(b bool) float32 {
	if b {
		return 1
	}
	return 0
}

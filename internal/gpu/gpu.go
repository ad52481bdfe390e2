// Package gpu defines the device contract the render graph is written against.
// Two devices implement it: glgpu (OpenGL 4.1 core) and softgpu (CPU reference).
package gpu

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Texture is a 2D color texture readable by later draws.
type Texture interface {
	Size() (width, height int)
}

// CubeTexture is a six-faced texture sampled by direction.
type CubeTexture interface {
	Size() int
}

// Framebuffer is a draw destination. A nil Framebuffer means the screen.
type Framebuffer interface {
	Size() (width, height int)
}

// Target is a texture and the framebuffer that renders into it.
type Target interface {
	Label() string
	Texture() Texture
	Framebuffer() Framebuffer
	Resize(width, height int) error
	Release()
}

// CubeTarget holds a cube texture with one framebuffer per face.
// Faces follow the GL order: +X, -X, +Y, -Y, +Z, -Z.
type CubeTarget interface {
	Texture() CubeTexture
	Face(i int) Framebuffer
	Size() int
	Release()
}

// Program is a linked vertex/fragment pair.
type Program interface {
	Name() string
	Release()
}

// ProgramSource names a program and carries its GLSL stages.
// Devices that do not compile GLSL resolve the program by Name.
type ProgramSource struct {
	Name     string
	Vertex   string
	Fragment string
}

// DrawCommand is one draw of one mesh with one program.
type DrawCommand struct {
	Program  Program
	Mesh     *Mesh
	Uniforms Uniforms
	Depth    DepthState
	Blend    BlendState
	// Label identifies the drawn record in device logs.
	Label string
}

// Device is the graphics queue. All calls happen on the render thread.
type Device interface {
	CompileProgram(src ProgramSource) (Program, error)
	CreateTarget(label string, opts TargetOptions, width, height int) (Target, error)
	CreateCubeTarget(label string, size int) (CubeTarget, error)

	// BindFramebuffer makes fb the draw destination, sets the viewport to its
	// size and returns the previously bound framebuffer.
	BindFramebuffer(fb Framebuffer) Framebuffer
	Clear(color mgl32.Vec4, depth float32)
	Draw(cmd DrawCommand)

	// Present copies fb to the screen.
	Present(fb Framebuffer)
	SetScreenSize(width, height int)
}

// Wrap selects texture addressing outside [0,1].
type Wrap int

const (
	WrapClamp Wrap = iota
	WrapRepeat
	WrapMirror
)

// Format selects the channel layout of a target.
type Format int

const (
	FormatRGBA Format = iota
	FormatRGB
)

// PixelType selects the storage precision of a target.
type PixelType int

const (
	TypeFloat PixelType = iota
	TypeUnsignedByte
)

// TargetOptions mirrors the texture parameters a named target may override.
type TargetOptions struct {
	Wrap   Wrap
	Format Format
	Type   PixelType
}

// Vertex layout shared by every device: location 0 position, 1 normal, 2 uv.
const (
	AttribPosition = 0
	AttribNormal   = 1
	AttribTexCoord = 2
)

// Mesh is indexed triangle geometry. Normals and TexCoords may be empty.
type Mesh struct {
	Name      string
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	TexCoords []mgl32.Vec2
	Faces     [][3]uint32
}

// Normal returns the normal of vertex i, or +Z when the mesh has none.
func (m *Mesh) Normal(i uint32) mgl32.Vec3 {
	if int(i) < len(m.Normals) {
		return m.Normals[i]
	}
	return mgl32.Vec3{0, 0, 1}
}

// TexCoord returns the uv of vertex i, or zero when the mesh has none.
func (m *Mesh) TexCoord(i uint32) mgl32.Vec2 {
	if int(i) < len(m.TexCoords) {
		return m.TexCoords[i]
	}
	return mgl32.Vec2{}
}

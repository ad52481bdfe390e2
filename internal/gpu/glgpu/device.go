// Package glgpu implements gpu.Device on OpenGL 4.1 core. A context must be
// current on the calling thread for every call.
package glgpu

import (
	"fmt"
	"image"

	"compositor/internal/gpu"
	"compositor/internal/logging"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// Device issues draw commands to the current GL context.
type Device struct {
	screen *framebuffer
	bound  *framebuffer
	meshes map[*gpu.Mesh]*meshBuffers
	images map[image.Image]*texture
}

// New loads the GL function pointers and wraps the default framebuffer of
// a width x height window.
func New(width, height int) (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("init gl: %w", err)
	}
	logging.Info("opengl ready", "version", gl.GoStr(gl.GetString(gl.VERSION)),
		"renderer", gl.GoStr(gl.GetString(gl.RENDERER)))

	d := &Device{
		screen: &framebuffer{w: width, h: height},
		meshes: make(map[*gpu.Mesh]*meshBuffers),
		images: make(map[image.Image]*texture),
	}
	gl.Disable(gl.CULL_FACE)
	return d, nil
}

func (d *Device) CompileProgram(src gpu.ProgramSource) (gpu.Program, error) {
	id, err := compileProgram(src.Vertex, src.Fragment)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src.Name, err)
	}
	return &program{id: id, name: src.Name, locations: make(map[string]int32)}, nil
}

func (d *Device) CreateTarget(label string, opts gpu.TargetOptions, width, height int) (gpu.Target, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("glgpu: invalid target size %dx%d for %s", width, height, label)
	}
	tex := newTexture(opts, width, height)
	fb, err := newFramebuffer(label, gl.TEXTURE_2D, tex.id, width, height)
	if err != nil {
		gl.DeleteTextures(1, &tex.id)
		return nil, err
	}
	d.restore()
	return &target{label: label, tex: tex, fb: fb}, nil
}

func (d *Device) CreateCubeTarget(label string, size int) (gpu.CubeTarget, error) {
	if size <= 0 {
		return nil, fmt.Errorf("glgpu: invalid cube size %d for %s", size, label)
	}
	c, err := newCubeTarget(label, size)
	d.restore()
	if err != nil {
		return nil, err
	}
	return c, nil
}

// restore rebinds the current framebuffer after a helper bound zero.
func (d *Device) restore() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, d.current().id)
}

func (d *Device) current() *framebuffer {
	if d.bound != nil {
		return d.bound
	}
	return d.screen
}

func (d *Device) BindFramebuffer(fb gpu.Framebuffer) gpu.Framebuffer {
	prev := d.bound
	if fb == nil {
		d.bound = nil
	} else {
		d.bound = fb.(*framebuffer)
	}
	cur := d.current()
	gl.BindFramebuffer(gl.FRAMEBUFFER, cur.id)
	gl.Viewport(0, 0, int32(cur.w), int32(cur.h))
	if prev == nil {
		return nil
	}
	return prev
}

func (d *Device) Clear(c mgl32.Vec4, depth float32) {
	gl.ColorMask(true, true, true, true)
	gl.DepthMask(true)
	gl.ClearColor(c[0], c[1], c[2], c[3])
	gl.ClearDepth(float64(depth))
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

func (d *Device) Draw(cmd gpu.DrawCommand) {
	if cmd.Mesh == nil {
		return
	}
	p := cmd.Program.(*program)
	b := d.ensureMesh(cmd.Mesh)

	applyDepth(cmd.Depth)
	applyBlend(cmd.Blend)
	gl.UseProgram(p.id)
	d.applyUniforms(p, cmd.Uniforms)

	gl.BindVertexArray(b.vao)
	gl.DrawElementsWithOffset(gl.TRIANGLES, b.count, gl.UNSIGNED_INT, 0)
	gl.BindVertexArray(0)
}

func applyDepth(s gpu.DepthState) {
	if !s.Test {
		gl.Disable(gl.DEPTH_TEST)
		return
	}
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthMask(s.Write)
	switch s.Func {
	case gpu.DepthLess:
		gl.DepthFunc(gl.LESS)
	case gpu.DepthAlways:
		gl.DepthFunc(gl.ALWAYS)
	default:
		gl.DepthFunc(gl.LEQUAL)
	}
}

func applyBlend(s gpu.BlendState) {
	if !s.Enabled {
		gl.Disable(gl.BLEND)
		return
	}
	gl.Enable(gl.BLEND)
	gl.BlendEquation(gl.FUNC_ADD)
	gl.BlendFuncSeparate(glFactor(s.SrcRGB), glFactor(s.DstRGB), glFactor(s.SrcAlpha), glFactor(s.DstAlpha))
}

func glFactor(f gpu.BlendFactor) uint32 {
	switch f {
	case gpu.BlendOne:
		return gl.ONE
	case gpu.BlendSrcAlpha:
		return gl.SRC_ALPHA
	case gpu.BlendOneMinusSrcAlpha:
		return gl.ONE_MINUS_SRC_ALPHA
	case gpu.BlendDstAlpha:
		return gl.DST_ALPHA
	case gpu.BlendOneMinusDstAlpha:
		return gl.ONE_MINUS_DST_ALPHA
	default:
		return gl.ZERO
	}
}

// Present blits fb onto the window's default framebuffer.
func (d *Device) Present(fb gpu.Framebuffer) {
	src := fb.(*framebuffer)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, src.id)
	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, 0)
	gl.BlitFramebuffer(0, 0, int32(src.w), int32(src.h),
		0, 0, int32(d.screen.w), int32(d.screen.h),
		gl.COLOR_BUFFER_BIT, gl.NEAREST)
	d.restore()
}

func (d *Device) SetScreenSize(width, height int) {
	d.screen.w, d.screen.h = max(width, 1), max(height, 1)
	if d.bound == nil {
		gl.Viewport(0, 0, int32(d.screen.w), int32(d.screen.h))
	}
}

// Release frees every uploaded mesh and image.
func (d *Device) Release() {
	for _, b := range d.meshes {
		b.release()
	}
	clear(d.meshes)
	for _, t := range d.images {
		gl.DeleteTextures(1, &t.id)
	}
	clear(d.images)
}

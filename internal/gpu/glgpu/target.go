package glgpu

import (
	"fmt"

	"compositor/internal/gpu"

	"github.com/go-gl/gl/v4.1-core/gl"
)

type texture struct {
	id   uint32
	w, h int
	opts gpu.TargetOptions
}

func (t *texture) Size() (int, int) { return t.w, t.h }

func glWrap(w gpu.Wrap) int32 {
	switch w {
	case gpu.WrapRepeat:
		return gl.REPEAT
	case gpu.WrapMirror:
		return gl.MIRRORED_REPEAT
	default:
		return gl.CLAMP_TO_EDGE
	}
}

func glFormat(opts gpu.TargetOptions) (internal int32, format, typ uint32) {
	format = gl.RGBA
	if opts.Format == gpu.FormatRGB {
		format = gl.RGB
	}
	switch {
	case opts.Type == gpu.TypeUnsignedByte && opts.Format == gpu.FormatRGB:
		return gl.RGB8, format, gl.UNSIGNED_BYTE
	case opts.Type == gpu.TypeUnsignedByte:
		return gl.RGBA8, format, gl.UNSIGNED_BYTE
	case opts.Format == gpu.FormatRGB:
		return gl.RGB32F, format, gl.FLOAT
	default:
		return gl.RGBA32F, format, gl.FLOAT
	}
}

// allocate (re)specifies the storage of t with undefined contents.
func (t *texture) allocate(w, h int) {
	internal, format, typ := glFormat(t.opts)
	gl.BindTexture(gl.TEXTURE_2D, t.id)
	gl.TexImage2D(gl.TEXTURE_2D, 0, internal, int32(w), int32(h), 0, format, typ, nil)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	t.w, t.h = w, h
}

func newTexture(opts gpu.TargetOptions, w, h int) *texture {
	t := &texture{opts: opts}
	gl.GenTextures(1, &t.id)
	gl.BindTexture(gl.TEXTURE_2D, t.id)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, glWrap(opts.Wrap))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, glWrap(opts.Wrap))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	t.allocate(w, h)
	return t
}

// framebuffer is an FBO with a depth renderbuffer. The zero id is the screen.
type framebuffer struct {
	id    uint32
	depth uint32
	w, h  int
}

func (f *framebuffer) Size() (int, int) { return f.w, f.h }

func (f *framebuffer) allocateDepth(w, h int) {
	gl.BindRenderbuffer(gl.RENDERBUFFER, f.depth)
	gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH_COMPONENT24, int32(w), int32(h))
	gl.BindRenderbuffer(gl.RENDERBUFFER, 0)
	f.w, f.h = w, h
}

// newFramebuffer attaches color (a 2D texture or a cube face) and a fresh
// depth renderbuffer.
func newFramebuffer(label string, textarget, tex uint32, w, h int) (*framebuffer, error) {
	f := &framebuffer{}
	gl.GenFramebuffers(1, &f.id)
	gl.GenRenderbuffers(1, &f.depth)
	f.allocateDepth(w, h)

	gl.BindFramebuffer(gl.FRAMEBUFFER, f.id)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, textarget, tex, 0)
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, f.depth)
	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		f.release()
		return nil, fmt.Errorf("glgpu: framebuffer %s incomplete: 0x%x", label, status)
	}
	return f, nil
}

func (f *framebuffer) release() {
	if f.id != 0 {
		gl.DeleteFramebuffers(1, &f.id)
		f.id = 0
	}
	if f.depth != 0 {
		gl.DeleteRenderbuffers(1, &f.depth)
		f.depth = 0
	}
}

type target struct {
	label string
	tex   *texture
	fb    *framebuffer
}

func (t *target) Label() string                { return t.label }
func (t *target) Texture() gpu.Texture         { return t.tex }
func (t *target) Framebuffer() gpu.Framebuffer { return t.fb }

// Resize respecifies the color and depth storage in place, so the texture
// and framebuffer handles stay valid.
func (t *target) Resize(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("glgpu: invalid target size %dx%d for %s", w, h, t.label)
	}
	t.tex.allocate(w, h)
	t.fb.allocateDepth(w, h)
	return nil
}

func (t *target) Release() {
	t.fb.release()
	if t.tex.id != 0 {
		gl.DeleteTextures(1, &t.tex.id)
		t.tex.id = 0
	}
}

type cubeTexture struct {
	id   uint32
	size int
}

func (c *cubeTexture) Size() int { return c.size }

type cubeTarget struct {
	tex *cubeTexture
	fbs [6]*framebuffer
}

func (c *cubeTarget) Texture() gpu.CubeTexture   { return c.tex }
func (c *cubeTarget) Face(i int) gpu.Framebuffer { return c.fbs[i] }
func (c *cubeTarget) Size() int                  { return c.tex.size }

func (c *cubeTarget) Release() {
	for _, fb := range c.fbs {
		if fb != nil {
			fb.release()
		}
	}
	if c.tex.id != 0 {
		gl.DeleteTextures(1, &c.tex.id)
		c.tex.id = 0
	}
}

func newCubeTarget(label string, size int) (*cubeTarget, error) {
	c := &cubeTarget{tex: &cubeTexture{size: size}}
	gl.GenTextures(1, &c.tex.id)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, c.tex.id)
	for i := uint32(0); i < 6; i++ {
		gl.TexImage2D(gl.TEXTURE_CUBE_MAP_POSITIVE_X+i, 0, gl.RGBA32F, int32(size), int32(size), 0, gl.RGBA, gl.FLOAT, nil)
	}
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_R, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, 0)

	for i := range c.fbs {
		fb, err := newFramebuffer(fmt.Sprintf("%s/face%d", label, i), gl.TEXTURE_CUBE_MAP_POSITIVE_X+uint32(i), c.tex.id, size, size)
		if err != nil {
			c.Release()
			return nil, err
		}
		c.fbs[i] = fb
	}
	return c, nil
}

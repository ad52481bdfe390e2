package softgpu

import (
	"fmt"
	"image"
	"math"

	"compositor/internal/gpu"

	"github.com/go-gl/mathgl/mgl32"
)

// texture stores RGBA float pixels; row 0 is the bottom row, as in GL.
type texture struct {
	w, h int
	pix  []float32
	opts gpu.TargetOptions
}

func newTexture(w, h int, opts gpu.TargetOptions) *texture {
	return &texture{w: w, h: h, pix: make([]float32, w*h*4), opts: opts}
}

func (t *texture) Size() (int, int) { return t.w, t.h }

func (t *texture) at(x, y int) mgl32.Vec4 {
	i := (y*t.w + x) * 4
	return mgl32.Vec4{t.pix[i], t.pix[i+1], t.pix[i+2], t.pix[i+3]}
}

// set stores c, applying the target's format and precision.
func (t *texture) set(x, y int, c mgl32.Vec4) {
	if t.opts.Format == gpu.FormatRGB {
		c[3] = 1
	}
	if t.opts.Type == gpu.TypeUnsignedByte {
		for k := range c {
			c[k] = float32(math.Round(float64(mgl32.Clamp(c[k], 0, 1))*255)) / 255
		}
	}
	i := (y*t.w + x) * 4
	copy(t.pix[i:i+4], c[:])
}

func (t *texture) fill(c mgl32.Vec4) {
	for y := 0; y < t.h; y++ {
		for x := 0; x < t.w; x++ {
			t.set(x, y, c)
		}
	}
}

// sample reads the texel nearest to uv.
func (t *texture) sample(uv mgl32.Vec2) mgl32.Vec4 {
	if t.w == 0 || t.h == 0 {
		return mgl32.Vec4{}
	}
	x := wrapCoord(int(math.Floor(float64(uv.X()*float32(t.w)))), t.w, t.opts.Wrap)
	y := wrapCoord(int(math.Floor(float64(uv.Y()*float32(t.h)))), t.h, t.opts.Wrap)
	return t.at(x, y)
}

func wrapCoord(i, n int, mode gpu.Wrap) int {
	switch mode {
	case gpu.WrapRepeat:
		i %= n
		if i < 0 {
			i += n
		}
		return i
	case gpu.WrapMirror:
		period := 2 * n
		i %= period
		if i < 0 {
			i += period
		}
		if i >= n {
			i = period - 1 - i
		}
		return i
	default:
		return max(0, min(i, n-1))
	}
}

// textureFromImage converts img so that its top row lands at v = 1.
func textureFromImage(img image.Image) *texture {
	b := img.Bounds()
	t := newTexture(b.Dx(), b.Dy(), gpu.TargetOptions{Wrap: gpu.WrapRepeat})
	for y := 0; y < t.h; y++ {
		for x := 0; x < t.w; x++ {
			r, g, bl, a := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			c := mgl32.Vec4{float32(r) / 0xffff, float32(g) / 0xffff, float32(bl) / 0xffff, float32(a) / 0xffff}
			if a != 0 {
				// RGBA() is alpha-premultiplied.
				c[0], c[1], c[2] = c[0]/c[3], c[1]/c[3], c[2]/c[3]
			}
			t.set(x, t.h-1-y, c)
		}
	}
	return t
}

// framebuffer is a color texture with its depth buffer.
type framebuffer struct {
	label string
	color *texture
	depth []float32
}

func newFramebuffer(label string, w, h int, opts gpu.TargetOptions) *framebuffer {
	return &framebuffer{label: label, color: newTexture(w, h, opts), depth: make([]float32, w*h)}
}

func (f *framebuffer) Size() (int, int) { return f.color.Size() }

type target struct {
	fb       *framebuffer
	released bool
}

func (t *target) Label() string                { return t.fb.label }
func (t *target) Texture() gpu.Texture         { return t.fb.color }
func (t *target) Framebuffer() gpu.Framebuffer { return t.fb }

// Resize reallocates the color and depth storage; old contents are dropped.
func (t *target) Resize(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("softgpu: invalid target size %dx%d", w, h)
	}
	// The texture value is kept so handles held by callers stay valid.
	c := t.fb.color
	c.w, c.h = w, h
	c.pix = make([]float32, w*h*4)
	t.fb.depth = make([]float32, w*h)
	return nil
}

func (t *target) Release() {
	t.released = true
	t.fb.color.pix = nil
	t.fb.depth = nil
}

// cubeTexture holds six square faces in GL order.
type cubeTexture struct {
	size  int
	faces [6]*texture
}

func (c *cubeTexture) Size() int { return c.size }

// sample picks the face and texel the way GL does for direction dir.
func (c *cubeTexture) sample(dir mgl32.Vec3) mgl32.Vec4 {
	x, y, z := dir.X(), dir.Y(), dir.Z()
	ax, ay, az := abs32(x), abs32(y), abs32(z)
	var face int
	var sc, tc, ma float32
	switch {
	case ax >= ay && ax >= az:
		ma = ax
		if x > 0 {
			face, sc, tc = 0, -z, -y
		} else {
			face, sc, tc = 1, z, -y
		}
	case ay >= az:
		ma = ay
		if y > 0 {
			face, sc, tc = 2, x, z
		} else {
			face, sc, tc = 3, x, -z
		}
	default:
		ma = az
		if z > 0 {
			face, sc, tc = 4, x, -y
		} else {
			face, sc, tc = 5, -x, -y
		}
	}
	if ma == 0 {
		return mgl32.Vec4{}
	}
	uv := mgl32.Vec2{(sc/ma + 1) / 2, (tc/ma + 1) / 2}
	return c.faces[face].sample(uv)
}

type cubeTarget struct {
	tex *cubeTexture
	fbs [6]*framebuffer
}

func (c *cubeTarget) Texture() gpu.CubeTexture   { return c.tex }
func (c *cubeTarget) Face(i int) gpu.Framebuffer { return c.fbs[i] }
func (c *cubeTarget) Size() int                  { return c.tex.size }
func (c *cubeTarget) Release()                   {}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

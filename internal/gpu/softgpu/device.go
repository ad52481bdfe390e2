// Package softgpu is a CPU implementation of gpu.Device. Fragment programs
// are Go kernels that mirror the GLSL sources by name. It backs the headless
// mode and the render graph tests.
package softgpu

import (
	"fmt"
	"image"
	"image/color"

	"compositor/internal/gpu"

	"github.com/go-gl/mathgl/mgl32"
)

// DrawRecord is one entry of the draw log.
type DrawRecord struct {
	Framebuffer string
	Program     string
	Label       string
	Depth       gpu.DepthState
	Blend       gpu.BlendState
}

type program struct {
	name   string
	kernel Kernel
}

func (p *program) Name() string { return p.name }
func (p *program) Release()     {}

// Device rasterizes draw commands into float buffers.
type Device struct {
	kernels map[string]Kernel
	bound   *framebuffer
	screen  *framebuffer
	images  map[image.Image]*texture
	draws   []DrawRecord
	logging bool
}

// New creates a device whose screen is width x height.
func New(width, height int) *Device {
	d := &Device{
		kernels: builtinKernels(),
		images:  make(map[image.Image]*texture),
	}
	d.SetScreenSize(width, height)
	return d
}

// RegisterKernel adds or replaces the kernel resolved for a program name.
func (d *Device) RegisterKernel(name string, k Kernel) {
	d.kernels[name] = k
}

func (d *Device) CompileProgram(src gpu.ProgramSource) (gpu.Program, error) {
	k, ok := d.kernels[src.Name]
	if !ok {
		return nil, fmt.Errorf("softgpu: no kernel for program %q", src.Name)
	}
	return &program{name: src.Name, kernel: k}, nil
}

func (d *Device) CreateTarget(label string, opts gpu.TargetOptions, width, height int) (gpu.Target, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("softgpu: invalid target size %dx%d for %s", width, height, label)
	}
	return &target{fb: newFramebuffer(label, width, height, opts)}, nil
}

func (d *Device) CreateCubeTarget(label string, size int) (gpu.CubeTarget, error) {
	if size <= 0 {
		return nil, fmt.Errorf("softgpu: invalid cube size %d for %s", size, label)
	}
	c := &cubeTarget{tex: &cubeTexture{size: size}}
	for i := range c.fbs {
		c.fbs[i] = newFramebuffer(fmt.Sprintf("%s/face%d", label, i), size, size, gpu.TargetOptions{})
		c.tex.faces[i] = c.fbs[i].color
	}
	return c, nil
}

func (d *Device) BindFramebuffer(fb gpu.Framebuffer) gpu.Framebuffer {
	prev := d.bound
	if fb == nil {
		d.bound = nil
	} else {
		d.bound = fb.(*framebuffer)
	}
	if prev == nil {
		return nil
	}
	return prev
}

func (d *Device) current() *framebuffer {
	if d.bound != nil {
		return d.bound
	}
	return d.screen
}

func (d *Device) Clear(c mgl32.Vec4, depth float32) {
	fb := d.current()
	fb.color.fill(c)
	for i := range fb.depth {
		fb.depth[i] = depth
	}
}

func (d *Device) Draw(cmd gpu.DrawCommand) {
	fb := d.current()
	p := cmd.Program.(*program)
	if d.logging {
		d.draws = append(d.draws, DrawRecord{
			Framebuffer: fb.label,
			Program:     p.name,
			Label:       cmd.Label,
			Depth:       cmd.Depth,
			Blend:       cmd.Blend,
		})
	}
	if cmd.Mesh == nil {
		return
	}
	d.drawMesh(fb, p.kernel, cmd)
}

// Present copies fb onto the screen buffer with nearest scaling.
func (d *Device) Present(fb gpu.Framebuffer) {
	src := fb.(*framebuffer).color
	dst := d.screen.color
	for y := 0; y < dst.h; y++ {
		for x := 0; x < dst.w; x++ {
			dst.set(x, y, src.at(x*src.w/dst.w, y*src.h/dst.h))
		}
	}
}

func (d *Device) SetScreenSize(width, height int) {
	d.screen = newFramebuffer("screen", max(width, 1), max(height, 1), gpu.TargetOptions{})
}

// Screen returns the presented image.
func (d *Device) Screen() gpu.Texture { return d.screen.color }

// LogDraws turns the draw log on or off.
func (d *Device) LogDraws(on bool) { d.logging = on }

// Draws returns the draw log since the last reset.
func (d *Device) Draws() []DrawRecord { return d.draws }

// ResetDraws clears the draw log.
func (d *Device) ResetDraws() { d.draws = d.draws[:0] }

// Pixel reads texel (x, y) of t, with y counted from the bottom row.
func (d *Device) Pixel(t gpu.Texture, x, y int) mgl32.Vec4 {
	return t.(*texture).at(x, y)
}

// Pixels returns a copy of the RGBA floats of t, bottom row first.
func (d *Device) Pixels(t gpu.Texture) []float32 {
	return append([]float32(nil), t.(*texture).pix...)
}

// Snapshot converts t to an 8-bit image with the top row first.
func (d *Device) Snapshot(t gpu.Texture) *image.NRGBA {
	tex := t.(*texture)
	img := image.NewNRGBA(image.Rect(0, 0, tex.w, tex.h))
	for y := 0; y < tex.h; y++ {
		for x := 0; x < tex.w; x++ {
			c := tex.at(x, tex.h-1-y)
			img.SetNRGBA(x, y, color.NRGBA{R: toByte(c[0]), G: toByte(c[1]), B: toByte(c[2]), A: toByte(c[3])})
		}
	}
	return img
}

func toByte(v float32) uint8 {
	return uint8(mgl32.Clamp(v, 0, 1)*255 + 0.5)
}

func (d *Device) upload(img image.Image) *texture {
	if t, ok := d.images[img]; ok {
		return t
	}
	t := textureFromImage(img)
	d.images[img] = t
	return t
}

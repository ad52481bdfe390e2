package render

import (
	"fmt"
	"sync"

	"compositor/internal/gpu"
	"compositor/internal/logging"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	clearColor = mgl32.Vec4{0, 0, 0, 1}
	clearDepth = float32(1)
)

// Registry owns the named render targets of one renderer. All targets share
// the viewport size.
type Registry struct {
	device gpu.Device

	// mu guards the target table and the size. Drawing itself stays on the
	// render thread.
	mu      sync.Mutex
	width   int
	height  int
	targets map[string]gpu.Target
	order   []string
}

// NewRegistry creates an empty registry for a width x height viewport.
func NewRegistry(device gpu.Device, width, height int) *Registry {
	return &Registry{
		device:  device,
		width:   width,
		height:  height,
		targets: make(map[string]gpu.Target),
	}
}

// Create allocates the named target. Creating an existing name is a no-op.
func (r *Registry) Create(name string, opts gpu.TargetOptions) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.targets[name]; ok {
		return nil
	}
	t, err := r.device.CreateTarget(name, opts, r.width, r.height)
	if err != nil {
		return fmt.Errorf("create target %s: %w", name, err)
	}
	r.targets[name] = t
	r.order = append(r.order, name)
	return nil
}

func (r *Registry) target(name string) gpu.Target {
	r.mu.Lock()
	t, ok := r.targets[name]
	r.mu.Unlock()
	if !ok {
		panic(&ConfigurationError{Kind: "target", Name: name})
	}
	return t
}

// Get returns the texture and framebuffer of name. Unknown names panic
// with a *ConfigurationError.
func (r *Registry) Get(name string) (gpu.Texture, gpu.Framebuffer) {
	t := r.target(name)
	return t.Texture(), t.Framebuffer()
}

// Texture returns the color texture of name, panicking like Get.
func (r *Registry) Texture(name string) gpu.Texture {
	return r.target(name).Texture()
}

// Lookup is the non-panicking form of Texture.
func (r *Registry) Lookup(name string) (gpu.Texture, error) {
	r.mu.Lock()
	t, ok := r.targets[name]
	r.mu.Unlock()
	if !ok {
		return nil, &ConfigurationError{Kind: "target", Name: name}
	}
	return t.Texture(), nil
}

// RenderInto binds the framebuffer of name, clears it to opaque black and
// far depth, runs body and rebinds whatever was bound before.
func (r *Registry) RenderInto(name string, body func()) gpu.Texture {
	t := r.target(name)
	prev := r.device.BindFramebuffer(t.Framebuffer())
	r.device.Clear(clearColor, clearDepth)
	body()
	r.device.BindFramebuffer(prev)
	return t.Texture()
}

// Resize reallocates every target to width x height and clears them. When
// one target fails, the ones already resized are restored to the previous
// size so all targets keep matching.
func (r *Registry) Resize(width, height int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if width <= 0 || height <= 0 {
		return fmt.Errorf("resize targets: invalid size %dx%d", width, height)
	}
	for i, name := range r.order {
		if err := r.targets[name].Resize(width, height); err != nil {
			r.rollback(r.order[:i])
			return fmt.Errorf("resize target %s: %w", name, err)
		}
	}
	r.width, r.height = width, height

	for _, name := range r.order {
		prev := r.device.BindFramebuffer(r.targets[name].Framebuffer())
		r.device.Clear(clearColor, clearDepth)
		r.device.BindFramebuffer(prev)
	}
	logging.Debug("render targets resized", "width", width, "height", height, "count", len(r.order))
	return nil
}

// rollback returns names to the current registry size. Called with mu held.
func (r *Registry) rollback(names []string) {
	for _, name := range names {
		if err := r.targets[name].Resize(r.width, r.height); err != nil {
			logging.Error("restore target size", "target", name, "err", err)
		}
	}
}

// Size returns the current viewport size.
func (r *Registry) Size() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width, r.height
}

// Names lists targets in creation order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

// Release frees every target.
func (r *Registry) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range r.order {
		r.targets[name].Release()
	}
	clear(r.targets)
	r.order = nil
}

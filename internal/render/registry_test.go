package render

import (
	"errors"
	"sync"
	"testing"

	"compositor/internal/gpu"
	"compositor/internal/gpu/softgpu"

	"github.com/go-gl/mathgl/mgl32"
)

func TestCreateIsIdempotent(t *testing.T) {
	d := softgpu.New(4, 4)
	reg := NewRegistry(d, 4, 4)
	if err := reg.Create("base", gpu.TargetOptions{}); err != nil {
		t.Fatal(err)
	}
	first := reg.Texture("base")
	if err := reg.Create("base", gpu.TargetOptions{Type: gpu.TypeUnsignedByte}); err != nil {
		t.Fatal(err)
	}
	if reg.Texture("base") != first {
		t.Fatalf("second create replaced the target")
	}
	if names := reg.Names(); len(names) != 1 {
		t.Fatalf("names: got %v, want [base]", names)
	}
}

func TestGetUnknownPanics(t *testing.T) {
	reg := NewRegistry(softgpu.New(4, 4), 4, 4)
	expectConfigurationError(t, "target", func() { reg.Get("nope") })
	if _, err := reg.Lookup("nope"); err == nil {
		t.Fatalf("lookup of unknown target should fail")
	}
}

func TestRenderIntoClearsAndRestoresBinding(t *testing.T) {
	d := softgpu.New(4, 4)
	reg := NewRegistry(d, 4, 4)
	for _, name := range []string{"outer", "inner"} {
		if err := reg.Create(name, gpu.TargetOptions{}); err != nil {
			t.Fatal(err)
		}
	}
	_, outerFB := reg.Get("outer")
	_, innerFB := reg.Get("inner")

	// Leave stale content in inner.
	d.BindFramebuffer(innerFB)
	d.Clear(mgl32.Vec4{1, 1, 1, 1}, 0)
	d.BindFramebuffer(nil)

	reg.RenderInto("outer", func() {
		tex := reg.RenderInto("inner", func() {})
		if got := d.Pixel(tex, 2, 2); got != clearColor {
			t.Fatalf("inner not cleared: got %v", got)
		}
		if prev := d.BindFramebuffer(outerFB); prev != outerFB {
			t.Fatalf("nested render did not rebind outer")
		}
	})
	if prev := d.BindFramebuffer(nil); prev != nil {
		t.Fatalf("top-level render did not rebind the screen")
	}
}

func TestResizeReallocatesAndClears(t *testing.T) {
	d := softgpu.New(4, 4)
	reg := NewRegistry(d, 4, 4)
	if err := reg.Create("base", gpu.TargetOptions{}); err != nil {
		t.Fatal(err)
	}
	_, fb := reg.Get("base")
	d.BindFramebuffer(fb)
	d.Clear(mgl32.Vec4{1, 0, 0, 1}, 1)
	d.BindFramebuffer(nil)

	if err := reg.Resize(6, 2); err != nil {
		t.Fatalf("resize: %v", err)
	}
	tex := reg.Texture("base")
	if w, h := tex.Size(); w != 6 || h != 2 {
		t.Fatalf("size: got %dx%d, want 6x2", w, h)
	}
	if got := d.Pixel(tex, 5, 1); got != clearColor {
		t.Fatalf("stale content after resize: %v", got)
	}
	if w, h := reg.Size(); w != 6 || h != 2 {
		t.Fatalf("registry size: got %dx%d", w, h)
	}
	if err := reg.Resize(0, 2); err == nil {
		t.Fatalf("expected error for empty size")
	}
}

var errOutOfMemory = errors.New("out of memory")

// brittleTarget fails every resize to tooBig.
type brittleTarget struct {
	gpu.Target
	tooBig int
}

func (t *brittleTarget) Resize(w, h int) error {
	if w == t.tooBig {
		return errOutOfMemory
	}
	return t.Target.Resize(w, h)
}

type brittleDevice struct {
	*softgpu.Device
	label  string
	tooBig int
}

func (d *brittleDevice) CreateTarget(label string, opts gpu.TargetOptions, w, h int) (gpu.Target, error) {
	t, err := d.Device.CreateTarget(label, opts, w, h)
	if err != nil || label != d.label {
		return t, err
	}
	return &brittleTarget{Target: t, tooBig: d.tooBig}, nil
}

func TestFailedResizeKeepsTargetsMatching(t *testing.T) {
	d := &brittleDevice{Device: softgpu.New(4, 4), label: "third", tooBig: 64}
	reg := NewRegistry(d, 4, 4)
	for _, name := range []string{"first", "second", "third", "fourth"} {
		if err := reg.Create(name, gpu.TargetOptions{}); err != nil {
			t.Fatal(err)
		}
	}

	if err := reg.Resize(64, 8); !errors.Is(err, errOutOfMemory) {
		t.Fatalf("resize: got %v, want wrapped %v", err, errOutOfMemory)
	}
	if w, h := reg.Size(); w != 4 || h != 4 {
		t.Fatalf("registry size after failure: got %dx%d, want 4x4", w, h)
	}
	for _, name := range reg.Names() {
		if w, h := reg.Texture(name).Size(); w != 4 || h != 4 {
			t.Fatalf("%s after failed resize: got %dx%d, want 4x4", name, w, h)
		}
	}

	// A later size the target accepts still goes through.
	if err := reg.Resize(6, 8); err != nil {
		t.Fatalf("retry: %v", err)
	}
	for _, name := range reg.Names() {
		if w, h := reg.Texture(name).Size(); w != 6 || h != 8 {
			t.Fatalf("%s after retry: got %dx%d, want 6x8", name, w, h)
		}
	}
}

func TestLookupDuringCreate(t *testing.T) {
	reg := NewRegistry(softgpu.New(2, 2), 2, 2)
	if err := reg.Create("base", gpu.TargetOptions{}); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			if _, err := reg.Lookup("base"); err != nil {
				t.Errorf("lookup: %v", err)
				return
			}
			reg.Names()
		}
	}()
	for i := 0; i < 100; i++ {
		if err := reg.Create(string(rune('a'+i%26))+string(rune('a'+i/26)), gpu.TargetOptions{}); err != nil {
			t.Fatal(err)
		}
	}
	wg.Wait()
	if n := len(reg.Names()); n != 101 {
		t.Fatalf("targets: got %d, want 101", n)
	}
}

package main

import (
	"time"

	"compositor/internal/config"
	"compositor/internal/gpu/glgpu"
	"compositor/internal/input"
	"compositor/internal/logging"
	"compositor/internal/profiling"
	"compositor/internal/render"
	"compositor/internal/scene"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// slowFrame is the frame time above which the loop logs the slowest stages.
const slowFrame = 50 * time.Millisecond

// FPSLimiter sleeps the loop down to a frame rate cap.
type FPSLimiter struct {
	next time.Time
}

// Wait blocks until the next frame is due. A limit of zero disables the cap.
// Sleeps most of the interval and spins the final microseconds.
func (f *FPSLimiter) Wait(limit int) {
	if limit <= 0 {
		f.next = time.Time{}
		return
	}

	target := time.Second / time.Duration(limit)
	if f.next.IsZero() {
		f.next = time.Now().Add(target)
	} else {
		f.next = f.next.Add(target)
	}

	for {
		remaining := time.Until(f.next)
		if remaining <= 0 {
			break
		}
		if remaining > 200*time.Microsecond {
			time.Sleep(remaining - 200*time.Microsecond)
		}
		if time.Until(f.next) <= 0 {
			break
		}
	}

	// Resync after a hitch instead of racing to catch up.
	if late := -time.Until(f.next); late > target {
		f.next = time.Now().Add(target)
	}
}

// Loop drives the window: input, scene animation, render and present.
type Loop struct {
	window   *glfw.Window
	device   *glgpu.Device
	renderer *render.SceneRenderer
	store    *config.Store
	scene    *scene.Scene
	camera   *scene.TurntableCamera
	home     scene.Preset

	limiter  FPSLimiter
	start    time.Time
	lastTime time.Time

	frames           int
	lastFPSCheckTime time.Time
	lastProfile      string

	input      *input.Manager
	lastCursor [2]float64
}

func NewLoop(window *glfw.Window, device *glgpu.Device, r *render.SceneRenderer, store *config.Store, sc *scene.Scene) *Loop {
	now := time.Now()
	l := &Loop{
		window:           window,
		device:           device,
		renderer:         r,
		store:            store,
		scene:            sc,
		start:            now,
		lastTime:         now,
		lastFPSCheckTime: now,
		input:            input.NewManager(),
	}
	if cam, ok := sc.Camera.(*scene.TurntableCamera); ok {
		l.camera = cam
		l.home = scene.Preset{DistanceFactor: cam.DistanceFactor, AngleZ: cam.AngleZ, AngleY: cam.AngleY, LookAt: cam.LookAt}
	}
	l.bindInput()
	return l
}

// Run renders until the window is closed.
func (l *Loop) Run() {
	for !l.window.ShouldClose() {
		l.tick()
	}
}

func (l *Loop) tick() {
	profiling.ResetFrame()
	now := time.Now()
	dt := now.Sub(l.lastTime).Seconds()
	l.lastTime = now

	func() { defer profiling.Track("glfw.PollEvents")(); glfw.PollEvents() }()
	l.handleActions()

	settings := l.store.Get()
	l.scene.Toggles = settings.Toggles
	elapsed := now.Sub(l.start).Seconds()
	l.scene.Evolve(elapsed, dt)

	w, h := l.window.GetFramebufferSize()
	if w > 0 && h > 0 {
		l.renderer.Render(&scene.SceneState{
			Scene: l.scene,
			Frame: scene.Frame{Width: w, Height: h, DeltaTime: dt},
			Time:  elapsed,
		})
	}

	func() { defer profiling.Track("glfw.SwapBuffers")(); l.window.SwapBuffers() }()

	l.lastProfile = profiling.TopN(8)
	if frame := time.Since(now); frame > slowFrame {
		logging.Warn("slow frame", "ms", frame.Milliseconds(), "top", profiling.TopN(3))
	}
	l.frames++
	if time.Since(l.lastFPSCheckTime) >= time.Second {
		logging.Debug("fps", "fps", l.frames, "scene", l.scene.Name)
		l.frames = 0
		l.lastFPSCheckTime = time.Now()
	}

	l.limiter.Wait(settings.Render.FPSLimit)
}

// bindInput wires the framebuffer size, the action bindings and the
// orbit and zoom controls.
func (l *Loop) bindInput() {
	l.input.Attach(l.window)
	l.window.SetFramebufferSizeCallback(func(_ *glfw.Window, w, h int) {
		l.device.SetScreenSize(w, h)
	})

	l.window.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		dx, dy := x-l.lastCursor[0], y-l.lastCursor[1]
		l.lastCursor = [2]float64{x, y}
		if l.camera != nil && l.input.IsActive(input.ActionOrbit) {
			l.camera.Orbit(float32(-dx*0.005), float32(-dy*0.005))
		}
	})

	l.window.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		if l.camera != nil {
			l.camera.Zoom(float32(1 - yoff*0.1))
		}
	})
}

// handleActions applies the actions pressed since the last frame.
func (l *Loop) handleActions() {
	defer l.input.PostUpdate()

	if l.input.JustPressed(input.ActionQuit) {
		l.window.SetShouldClose(true)
	}
	if l.input.JustPressed(input.ActionResetCamera) && l.camera != nil {
		l.camera.SetPreset(l.home)
	}
	if l.input.JustPressed(input.ActionDumpProfile) {
		logging.Info("profile", "top", l.lastProfile)
	}
	toggles := []struct {
		action input.Action
		field  func(t *scene.Toggles) *bool
	}{
		{input.ActionToggleSSR, func(t *scene.Toggles) *bool { return &t.SSREnabled }},
		{input.ActionToggleBloom, func(t *scene.Toggles) *bool { return &t.BloomEnabled }},
		{input.ActionToggleSharpen, func(t *scene.Toggles) *bool { return &t.SharpenEnabled }},
		{input.ActionToggleGamma, func(t *scene.Toggles) *bool { return &t.GammaEnabled }},
		{input.ActionToggleMirror, func(t *scene.Toggles) *bool { return &t.MirrorEnabled }},
	}
	for _, tg := range toggles {
		if l.input.JustPressed(tg.action) {
			l.toggle(tg.action, tg.field)
		}
	}
}

func (l *Loop) toggle(action input.Action, field func(t *scene.Toggles) *bool) {
	var on bool
	l.store.UpdateToggles(func(t *scene.Toggles) {
		p := field(t)
		*p = !*p
		on = *p
	})
	logging.Info("toggle", "action", action, "enabled", on)
}

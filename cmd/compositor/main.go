package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"io/fs"
	"os"
	"runtime"

	"compositor/internal/config"
	"compositor/internal/gpu"
	"compositor/internal/gpu/glgpu"
	"compositor/internal/gpu/softgpu"
	"compositor/internal/logging"
	"compositor/internal/render"
	"compositor/internal/resources"
	"compositor/internal/scene"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/xlab/closer"
	"golang.org/x/image/draw"
)

func init() {
	runtime.LockOSThread()
}

var (
	configPath = flag.String("config", "compositor.toml", "settings file, reloaded on change")
	sceneName  = flag.String("scene", "", "demo scene, overrides the settings file")
	headless   = flag.Bool("headless", false, "render on the software device and write a PNG")
	outPath    = flag.String("out", "frame.png", "headless output image")
	frames     = flag.Int("frames", 1, "headless frames to render before the snapshot")
	scale      = flag.Float64("scale", 1, "headless output scale")
)

func main() {
	defer closer.Close()
	flag.Parse()

	settings, err := loadSettings(*configPath)
	if err != nil {
		logging.Fatal("load settings", "err", err)
	}
	logging.SetLevel(settings.LogLevel)
	if *sceneName != "" {
		settings.Scene.Name = *sceneName
	}

	if *headless {
		err = runHeadless(settings)
	} else {
		err = runWindow(settings)
	}
	if err != nil {
		logging.Error("compositor stopped", "err", err)
		closer.Exit(1)
	}
}

// loadSettings falls back to defaults when the file does not exist.
func loadSettings(path string) (config.Settings, error) {
	s, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		logging.Info("no settings file, using defaults", "path", path)
		return config.Default(), nil
	}
	return s, err
}

func renderOptions(s config.Settings, w, h int) render.Options {
	opts := render.DefaultOptions(w, h)
	opts.BloomIterations = s.Render.BloomIterations
	opts.CaptureSize = s.Render.CaptureSize
	opts.Ambient = s.Render.Ambient
	opts.ShadowDarkness = s.Render.ShadowDarkness
	opts.ReflectionBlur = s.Render.ReflectionBlur
	opts.BlurRadius = s.Render.BlurRadius
	if s.Render.TargetType == "byte" {
		opts.TargetType = gpu.TypeUnsignedByte
	}
	return opts
}

func newResources(s config.Settings) (*resources.Manager, error) {
	res := resources.NewManager()
	if s.Scene.TextureDir != "" {
		if err := res.LoadImages(s.Scene.TextureDir); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func runWindow(settings config.Settings) error {
	stop := newShutdown()
	defer stop.finished()
	closer.Bind(stop.request)

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("init glfw: %w", err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)

	window, err := glfw.CreateWindow(settings.Window.Width, settings.Window.Height, settings.Window.Title, nil, nil)
	if err != nil {
		return fmt.Errorf("create window: %w", err)
	}
	stop.setWindow(window)
	defer func() {
		stop.setWindow(nil)
		window.Destroy()
	}()
	window.MakeContextCurrent()
	if settings.Window.VSync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	fw, fh := window.GetFramebufferSize()
	device, err := glgpu.New(fw, fh)
	if err != nil {
		return err
	}
	defer device.Release()

	res, err := newResources(settings)
	if err != nil {
		return err
	}
	sc, err := buildScene(settings.Scene.Name, res, settings.Scene.Seed, fw, fh)
	if err != nil {
		return err
	}
	r, err := render.NewSceneRenderer(device, res, renderOptions(settings, fw, fh))
	if err != nil {
		return err
	}
	defer r.Release()

	store := config.NewStore(settings)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := config.Watch(ctx, *configPath, store); err != nil {
		logging.Warn("settings hot reload disabled", "err", err)
	}

	logging.Info("rendering", "scene", sc.Name, "width", fw, "height", fh)
	NewLoop(window, device, r, store, sc).Run()
	return nil
}

func runHeadless(settings config.Settings) error {
	w, h := settings.Window.Width, settings.Window.Height
	device := softgpu.New(w, h)

	res, err := newResources(settings)
	if err != nil {
		return err
	}
	sc, err := buildScene(settings.Scene.Name, res, settings.Scene.Seed, w, h)
	if err != nil {
		return err
	}
	sc.Toggles = settings.Toggles
	r, err := render.NewSceneRenderer(device, res, renderOptions(settings, w, h))
	if err != nil {
		return err
	}
	defer r.Release()

	const dt = 1.0 / 30
	for i := 0; i < max(*frames, 1); i++ {
		t := float64(i) * dt
		sc.Evolve(t, dt)
		r.Render(&scene.SceneState{
			Scene: sc,
			Frame: scene.Frame{Width: w, Height: h, DeltaTime: dt},
			Time:  t,
		})
	}

	return writePNG(*outPath, scaled(device.Snapshot(device.Screen()), *scale))
}

func scaled(img *image.NRGBA, factor float64) image.Image {
	if factor <= 0 || factor == 1 {
		return img
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, max(1, int(float64(b.Dx())*factor)), max(1, int(float64(b.Dy())*factor))))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	logging.Info("wrote frame", "path", path, "size", img.Bounds().Size())
	return nil
}

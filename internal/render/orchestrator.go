package render

import (
	"fmt"

	"compositor/internal/gpu"
	"compositor/internal/logging"
	"compositor/internal/profiling"
	"compositor/internal/render/shaders"
	"compositor/internal/scene"
)

// Named targets, in creation order.
const (
	TargetShadows         = "shadows"
	TargetBase            = "base"
	TargetMapMixer        = "map_mixer"
	TargetTransparency    = "transparency"
	TargetPosition        = "position"
	TargetMask            = "mask"
	TargetNormal          = "normal"
	TargetSSR             = "ssr"
	TargetSpecular        = "specular"
	TargetReflectionColor = "reflection_color"
	TargetColor           = "color"
	TargetBoxBlur         = "box_blur"
	TargetReflection      = "reflection"
	TargetFinalColor      = "final_color"
	TargetBloomExtract    = "bloom_extract"
	TargetBloomBlur0      = "bloom_blur_0"
	TargetBloomBlur1      = "bloom_blur_1"
	TargetBloom           = "bloom"
	TargetSharpen         = "sharpen"
	TargetGamma           = "gamma"
)

var targetNames = []string{
	TargetShadows, TargetBase, TargetMapMixer, TargetTransparency, TargetPosition,
	TargetMask, TargetNormal, TargetSSR, TargetSpecular, TargetReflectionColor,
	TargetColor, TargetBoxBlur, TargetReflection, TargetFinalColor, TargetBloomExtract,
	TargetBloomBlur0, TargetBloomBlur1, TargetBloom, TargetSharpen, TargetGamma,
}

var bloomBlurTargets = [2]string{TargetBloomBlur0, TargetBloomBlur1}

var programNames = []string{
	"pre_processing", "flat_color", "terrain", "blinn_phong", "mirror",
	"shadow_map", "shadows", "glass", "water",
	"position", "normal", "mask", "specular", "color",
	"ssr", "reflection_color", "box_blur", "reflection", "map_mixer", "base_combine",
	"bloom_extract", "bloom_blur", "bloom", "sharpen", "gamma",
}

// Options configure a SceneRenderer at construction.
type Options struct {
	Width  int
	Height int

	// BloomIterations is the number of one-axis blur passes.
	BloomIterations int
	// CaptureSize is the face size of the mirror and shadow cube maps.
	CaptureSize int
	TargetType  gpu.PixelType

	Ambient        float32
	ShadowDarkness float32
	ReflectionBlur float32
	BlurRadius     int
}

// DefaultOptions returns the options used by the demo scenes.
func DefaultOptions(width, height int) Options {
	return Options{
		Width:           width,
		Height:          height,
		BloomIterations: 10,
		CaptureSize:     256,
		TargetType:      gpu.TypeFloat,
		Ambient:         0.2,
		ShadowDarkness:  0.5,
		ReflectionBlur:  0.5,
		BlurRadius:      2,
	}
}

// SceneRenderer owns the registry and every pass and runs the fixed pass
// order once per frame.
type SceneRenderer struct {
	device   gpu.Device
	opts     Options
	registry *Registry
	programs map[string]gpu.Program

	envCapture    *EnvCapture
	shadowCapture *EnvCapture

	preProcessing *PreProcessingPass
	background    *BackgroundPass
	terrain       *TerrainPass
	shading       *ShadingPass
	mirror        *MirrorPass
	shadows       *ShadowsPass
	transpDepth   *PreProcessingPass
	transparency  *TransparencyPass
	water         *WaterPass

	position *GBufferPass
	normal   *GBufferPass
	mask     *GBufferPass
	specular *GBufferPass
	color    *GBufferPass

	ssr             *SSRPass
	reflectionColor *ReflectionColorPass
	boxBlur         *BoxBlurPass
	reflection      *ReflectionPass
	shadowComposite *ShadowCompositePass
	baseCombine     *BaseCombinePass
	bloomExtract    *BloomExtractPass
	bloomBlur       *BloomBlurPass
	bloomCombine    *BloomCombinePass
	sharpen         *SharpenPass
	gamma           *GammaPass
}

// NewSceneRenderer compiles every program and allocates every target.
// Compile failures are returned before any frame can run.
func NewSceneRenderer(device gpu.Device, res Resources, opts Options) (*SceneRenderer, error) {
	r := &SceneRenderer{
		device:   device,
		opts:     opts,
		registry: NewRegistry(device, max(opts.Width, 1), max(opts.Height, 1)),
		programs: make(map[string]gpu.Program, len(programNames)),
	}
	for _, name := range programNames {
		src, err := shaders.Program(name)
		if err != nil {
			r.Release()
			return nil, err
		}
		p, err := device.CompileProgram(src)
		if err != nil {
			r.Release()
			return nil, fmt.Errorf("compile %s: %w", name, err)
		}
		r.programs[name] = p
	}

	targetOpts := gpu.TargetOptions{Wrap: gpu.WrapClamp, Format: gpu.FormatRGBA, Type: opts.TargetType}
	for _, name := range targetNames {
		if err := r.registry.Create(name, targetOpts); err != nil {
			r.Release()
			return nil, err
		}
	}

	var err error
	if r.envCapture, err = NewEnvCapture(device, "env_capture", opts.CaptureSize); err != nil {
		r.Release()
		return nil, err
	}
	if r.shadowCapture, err = NewEnvCapture(device, "shadow_capture", opts.CaptureSize); err != nil {
		r.Release()
		return nil, err
	}

	env := &passEnv{device: device, resources: res, programs: r.programs}
	// Translucent surfaces stay out of the base image so glass can refract
	// what lies behind it.
	r.preProcessing = newPreProcessingPass(env, Without(scene.TagWater, scene.TagTransparent))
	r.background = newBackgroundPass(env)
	r.terrain = newTerrainPass(env, opts.Ambient)
	r.shading = newShadingPass(env, opts.Ambient)
	r.mirror = newMirrorPass(env, r.envCapture, r.RenderBase)
	r.shadows = newShadowsPass(env, r.shadowCapture)
	r.transpDepth = newPreProcessingPass(env, Without(scene.TagWater))
	r.transparency = newTransparencyPass(env)
	r.water = newWaterPass(env, opts.Ambient)

	r.position = newPositionPass(env)
	r.normal = newNormalPass(env)
	r.mask = newMaskPass(env)
	r.specular = newSpecularPass(env)
	r.color = newColorPass(env)

	r.ssr = newSSRPass(env)
	r.reflectionColor = newReflectionColorPass(env)
	r.boxBlur = newBoxBlurPass(env)
	r.reflection = newReflectionPass(env)
	r.shadowComposite = newShadowCompositePass(env)
	r.baseCombine = newBaseCombinePass(env)
	r.bloomExtract = newBloomExtractPass(env)
	r.bloomBlur = newBloomBlurPass(env)
	r.bloomCombine = newBloomCombinePass(env)
	r.sharpen = newSharpenPass(env)
	r.gamma = newGammaPass(env)

	logging.Info("scene renderer ready",
		"programs", len(r.programs), "targets", len(targetNames),
		"width", opts.Width, "height", opts.Height)
	return r, nil
}

// RenderBase is the opaque base stage: depth prepass, background, terrain,
// Blinn-Phong and the mirror overlay, drawn into the bound framebuffer.
// Glass and water are left to the transparency stage.
// The mirror pass calls it again for its captures.
func (r *SceneRenderer) RenderBase(ctx Context) {
	r.preProcessing.Render(ctx)
	r.background.Render(ctx)
	r.terrain.Render(ctx)
	r.shading.Render(ctx)
	r.mirror.Render(ctx)
}

// stage renders into target under a profiling label.
func (r *SceneRenderer) stage(target string, body func()) gpu.Texture {
	defer profiling.Track("stage." + target)()
	return r.registry.RenderInto(target, body)
}

// Render draws one frame of state and presents it.
func (r *SceneRenderer) Render(state *scene.SceneState) {
	defer profiling.Track("frame")()

	if w, h := state.Frame.Width, state.Frame.Height; w > 0 && h > 0 {
		if rw, rh := r.registry.Size(); rw != w || rh != h {
			if err := r.registry.Resize(w, h); err != nil {
				logging.Error("skipping frame", "err", err)
				return
			}
		}
	}

	sc := state.Scene
	w, h := r.registry.Size()
	sc.Camera.UpdateFormatRatio(w, h)
	sc.Camera.ComputeObjectMatrices(sc.Objects)

	ctx := Context{State: state, Camera: sc.Camera}
	t := sc.Toggles

	base := r.stage(TargetBase, func() { r.RenderBase(ctx) })
	shadows := r.stage(TargetShadows, func() { r.shadows.Render(ctx) })
	transparency := r.stage(TargetTransparency, func() {
		r.transpDepth.Render(ctx)
		r.transparency.Render(ctx, base)
		r.water.Render(ctx)
	})

	position := r.stage(TargetPosition, func() { r.position.Render(ctx) })
	mask := r.stage(TargetMask, func() { r.mask.Render(ctx) })
	normal := r.stage(TargetNormal, func() { r.normal.Render(ctx) })
	color := r.stage(TargetColor, func() { r.color.Render(ctx) })
	specular := r.stage(TargetSpecular, func() { r.specular.Render(ctx) })

	ssr := r.stage(TargetSSR, func() {
		r.ssr.Render(position, normal, mask, sc.Camera.Projection(), t)
	})
	reflColor := r.stage(TargetReflectionColor, func() { r.reflectionColor.Render(ssr, color) })
	blurred := r.stage(TargetBoxBlur, func() { r.boxBlur.Render(reflColor, r.opts.BlurRadius) })
	reflection := r.stage(TargetReflection, func() {
		r.reflection.Render(reflColor, blurred, mask, r.opts.ReflectionBlur)
	})

	mixed := r.stage(TargetMapMixer, func() {
		r.shadowComposite.Render(base, shadows, r.opts.ShadowDarkness)
	})
	final := r.stage(TargetFinalColor, func() {
		r.baseCombine.Render(mixed, reflection, specular, transparency)
	})

	extract := r.stage(TargetBloomExtract, func() { r.bloomExtract.Render(final, t.BloomThreshold) })
	blur := r.blurBloom(extract)
	bloom := r.stage(TargetBloom, func() { r.bloomCombine.Render(final, blur, t) })
	sharp := r.stage(TargetSharpen, func() { r.sharpen.Render(bloom, t.SharpenEnabled) })
	r.stage(TargetGamma, func() { r.gamma.Render(sharp, t) })

	_, fb := r.registry.Get(TargetGamma)
	r.device.Present(fb)
}

// blurBloom ping-pongs the separable blur between the two blur targets,
// starting horizontal into the first. Zero iterations return extract.
func (r *SceneRenderer) blurBloom(extract gpu.Texture) gpu.Texture {
	defer profiling.Track("stage.bloom_blur")()
	src := extract
	horizontal := true
	for i := 0; i < r.opts.BloomIterations; i++ {
		in, h := src, horizontal
		src = r.registry.RenderInto(bloomBlurTargets[i%2], func() { r.bloomBlur.Render(in, h) })
		horizontal = !horizontal
	}
	return src
}

// Texture returns a named intermediate target for diagnostics.
func (r *SceneRenderer) Texture(name string) (gpu.Texture, error) {
	return r.registry.Lookup(name)
}

// Registry exposes the target registry.
func (r *SceneRenderer) Registry() *Registry { return r.registry }

// Release frees targets, captures and programs.
func (r *SceneRenderer) Release() {
	r.registry.Release()
	if r.envCapture != nil {
		r.envCapture.Release()
	}
	if r.shadowCapture != nil {
		r.shadowCapture.Release()
	}
	for _, p := range r.programs {
		p.Release()
	}
	clear(r.programs)
}

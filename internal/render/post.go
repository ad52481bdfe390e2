package render

import (
	"compositor/internal/gpu"
	"compositor/internal/scene"

	"github.com/go-gl/mathgl/mgl32"
)

// Post-processing passes draw the screen quad once. Inputs are sampled at
// gl_FragCoord / u_tex_size with nearest filtering, so a pass that returns
// its input unchanged copies it exactly.

func newFullscreenPass(env *passEnv, program string, extra ...string) *Pass {
	p := env.newPass(program, append([]string{"u_tex_size"}, extra...)...)
	p.Depth = gpu.NoDepth()
	return p
}

// SSRPass marches reflected rays through the position buffer and writes
// the hit uv. Disabled, it writes zeros.
type SSRPass struct{ *Pass }

func newSSRPass(env *passEnv) *SSRPass {
	return &SSRPass{newFullscreenPass(env, "ssr",
		"u_position", "u_normal", "u_mask", "u_projection", "u_max_distance", "u_enabled")}
}

func (p *SSRPass) Render(position, normal, mask gpu.Texture, projection mgl32.Mat4, t scene.Toggles) {
	p.fullscreen(gpu.Uniforms{
		"u_position":     position,
		"u_normal":       normal,
		"u_mask":         mask,
		"u_projection":   projection,
		"u_max_distance": t.SSRMaxDistance,
		"u_enabled":      gpu.FloatFlag(t.SSREnabled),
		"u_tex_size":     gpu.TexSize(position),
	})
}

// ReflectionColorPass resolves SSR hit uvs into colors.
type ReflectionColorPass struct{ *Pass }

func newReflectionColorPass(env *passEnv) *ReflectionColorPass {
	return &ReflectionColorPass{newFullscreenPass(env, "reflection_color", "u_uv_texture", "u_color_texture")}
}

func (p *ReflectionColorPass) Render(uv, color gpu.Texture) {
	p.fullscreen(gpu.Uniforms{
		"u_uv_texture":    uv,
		"u_color_texture": color,
		"u_tex_size":      gpu.TexSize(uv),
	})
}

// BoxBlurPass averages a square neighborhood.
type BoxBlurPass struct{ *Pass }

func newBoxBlurPass(env *passEnv) *BoxBlurPass {
	return &BoxBlurPass{newFullscreenPass(env, "box_blur", "u_texture", "u_radius")}
}

func (p *BoxBlurPass) Render(src gpu.Texture, radius int) {
	p.fullscreen(gpu.Uniforms{
		"u_texture":  src,
		"u_radius":   float32(radius),
		"u_tex_size": gpu.TexSize(src),
	})
}

// ReflectionPass mixes sharp and blurred reflections under the mask.
type ReflectionPass struct{ *Pass }

func newReflectionPass(env *passEnv) *ReflectionPass {
	return &ReflectionPass{newFullscreenPass(env, "reflection",
		"u_color_texture", "u_blur_texture", "u_mask", "u_blur_mix")}
}

func (p *ReflectionPass) Render(color, blur, mask gpu.Texture, blurMix float32) {
	p.fullscreen(gpu.Uniforms{
		"u_color_texture": color,
		"u_blur_texture":  blur,
		"u_mask":          mask,
		"u_blur_mix":      blurMix,
		"u_tex_size":      gpu.TexSize(color),
	})
}

// ShadowCompositePass darkens the base image under the shadow mask.
type ShadowCompositePass struct{ *Pass }

func newShadowCompositePass(env *passEnv) *ShadowCompositePass {
	return &ShadowCompositePass{newFullscreenPass(env, "map_mixer", "u_base", "u_shadows", "u_darkness")}
}

func (p *ShadowCompositePass) Render(base, shadows gpu.Texture, darkness float32) {
	p.fullscreen(gpu.Uniforms{
		"u_base":     base,
		"u_shadows":  shadows,
		"u_darkness": darkness,
		"u_tex_size": gpu.TexSize(base),
	})
}

// BaseCombinePass adds specular-weighted reflections and the transparency
// buffer to the shadowed base.
type BaseCombinePass struct{ *Pass }

func newBaseCombinePass(env *passEnv) *BaseCombinePass {
	return &BaseCombinePass{newFullscreenPass(env, "base_combine",
		"u_base", "u_reflection", "u_specular", "u_transparency")}
}

func (p *BaseCombinePass) Render(base, reflection, specular, transparency gpu.Texture) {
	p.fullscreen(gpu.Uniforms{
		"u_base":         base,
		"u_reflection":   reflection,
		"u_specular":     specular,
		"u_transparency": transparency,
		"u_tex_size":     gpu.TexSize(base),
	})
}

// BloomExtractPass keeps pixels brighter than the threshold.
type BloomExtractPass struct{ *Pass }

func newBloomExtractPass(env *passEnv) *BloomExtractPass {
	return &BloomExtractPass{newFullscreenPass(env, "bloom_extract", "u_texture", "u_threshold")}
}

func (p *BloomExtractPass) Render(src gpu.Texture, threshold float32) {
	p.fullscreen(gpu.Uniforms{
		"u_texture":   src,
		"u_threshold": threshold,
		"u_tex_size":  gpu.TexSize(src),
	})
}

// BloomBlurPass is one axis of a separable gaussian.
type BloomBlurPass struct{ *Pass }

func newBloomBlurPass(env *passEnv) *BloomBlurPass {
	return &BloomBlurPass{newFullscreenPass(env, "bloom_blur", "u_texture", "u_horizontal")}
}

func (p *BloomBlurPass) Render(src gpu.Texture, horizontal bool) {
	p.fullscreen(gpu.Uniforms{
		"u_texture":    src,
		"u_horizontal": gpu.FloatFlag(horizontal),
		"u_tex_size":   gpu.TexSize(src),
	})
}

// BloomCombinePass adds the blurred bright pass back. Disabled, it copies
// its input.
type BloomCombinePass struct{ *Pass }

func newBloomCombinePass(env *passEnv) *BloomCombinePass {
	return &BloomCombinePass{newFullscreenPass(env, "bloom", "u_texture", "u_blur", "u_intensity", "u_enabled")}
}

func (p *BloomCombinePass) Render(src, blur gpu.Texture, t scene.Toggles) {
	p.fullscreen(gpu.Uniforms{
		"u_texture":   src,
		"u_blur":      blur,
		"u_intensity": t.BloomIntensity,
		"u_enabled":   gpu.FloatFlag(t.BloomEnabled),
		"u_tex_size":  gpu.TexSize(src),
	})
}

// SharpenPass applies a 5-tap unsharp kernel. Disabled, it copies its input.
type SharpenPass struct{ *Pass }

func newSharpenPass(env *passEnv) *SharpenPass {
	return &SharpenPass{newFullscreenPass(env, "sharpen", "u_texture", "u_enabled")}
}

func (p *SharpenPass) Render(src gpu.Texture, enabled bool) {
	p.fullscreen(gpu.Uniforms{
		"u_texture":  src,
		"u_enabled":  gpu.FloatFlag(enabled),
		"u_tex_size": gpu.TexSize(src),
	})
}

// GammaPass applies pow(c, 1/gamma). Disabled, it copies its input.
type GammaPass struct{ *Pass }

func newGammaPass(env *passEnv) *GammaPass {
	return &GammaPass{newFullscreenPass(env, "gamma", "u_texture", "u_gamma", "u_enabled")}
}

func (p *GammaPass) Render(src gpu.Texture, t scene.Toggles) {
	p.fullscreen(gpu.Uniforms{
		"u_texture":  src,
		"u_gamma":    t.Gamma,
		"u_enabled":  gpu.FloatFlag(t.GammaEnabled),
		"u_tex_size": gpu.TexSize(src),
	})
}

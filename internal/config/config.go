package config

import (
	"fmt"
	"os"
	"sync"

	"compositor/internal/scene"

	"github.com/pelletier/go-toml/v2"
)

// WindowSettings configures the host window.
type WindowSettings struct {
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	Title  string `toml:"title"`
	VSync  bool   `toml:"vsync"`
}

// RenderSettings configures the render graph at construction.
type RenderSettings struct {
	BloomIterations int     `toml:"bloom_iterations"`
	CaptureSize     int     `toml:"capture_size"`
	TargetType      string  `toml:"target_type"` // "float" or "byte"
	Ambient         float32 `toml:"ambient"`
	ShadowDarkness  float32 `toml:"shadow_darkness"`
	ReflectionBlur  float32 `toml:"reflection_blur"`
	BlurRadius      int     `toml:"blur_radius"`
	FPSLimit        int     `toml:"fps_limit"`
}

// SceneSettings selects the demo scene.
type SceneSettings struct {
	Name       string `toml:"name"`
	TextureDir string `toml:"texture_dir"`
	Seed       int64  `toml:"seed"`
}

// Settings is the whole settings file.
type Settings struct {
	LogLevel string         `toml:"log_level"`
	Window   WindowSettings `toml:"window"`
	Render   RenderSettings `toml:"render"`
	Scene    SceneSettings  `toml:"scene"`
	Toggles  scene.Toggles  `toml:"toggles"`
}

// Default returns the settings used when no file is present.
func Default() Settings {
	return Settings{
		LogLevel: "info",
		Window: WindowSettings{
			Width:  1280,
			Height: 720,
			Title:  "compositor",
			VSync:  true,
		},
		Render: RenderSettings{
			BloomIterations: 10,
			CaptureSize:     256,
			TargetType:      "float",
			Ambient:         0.2,
			ShadowDarkness:  0.5,
			ReflectionBlur:  0.5,
			BlurRadius:      2,
			FPSLimit:        0,
		},
		Scene: SceneSettings{
			Name: "tutorial",
			Seed: 1,
		},
		Toggles: scene.DefaultToggles(),
	}
}

// Parse decodes a settings document on top of the defaults and clamps it.
func Parse(data []byte) (Settings, error) {
	s := Default()
	if err := toml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse settings: %w", err)
	}
	s.clamp()
	return s, nil
}

// Load reads and parses the settings file at path.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}
	return Parse(data)
}

// Encode serializes settings back to TOML.
func Encode(s Settings) ([]byte, error) {
	return toml.Marshal(s)
}

func (s *Settings) clamp() {
	if s.Window.Width < 64 {
		s.Window.Width = 64
	}
	if s.Window.Height < 64 {
		s.Window.Height = 64
	}
	s.Render.BloomIterations = clampInt(s.Render.BloomIterations, 0, 64)
	s.Render.CaptureSize = clampInt(s.Render.CaptureSize, 4, 2048)
	s.Render.BlurRadius = clampInt(s.Render.BlurRadius, 0, 8)
	s.Render.Ambient = clampFloat(s.Render.Ambient, 0, 1)
	s.Render.ShadowDarkness = clampFloat(s.Render.ShadowDarkness, 0, 1)
	s.Render.ReflectionBlur = clampFloat(s.Render.ReflectionBlur, 0, 1)
	if s.Render.TargetType != "byte" {
		s.Render.TargetType = "float"
	}
	if s.Render.FPSLimit < 0 {
		s.Render.FPSLimit = 0
	}

	t := &s.Toggles
	t.Gamma = clampFloat(t.Gamma, 0.1, 5)
	t.BloomIntensity = clampFloat(t.BloomIntensity, 0, 10)
	t.BloomThreshold = clampFloat(t.BloomThreshold, 0, 10)
	t.SSRMaxDistance = clampFloat(t.SSRMaxDistance, 0, 100)
	t.WaveStrength = clampFloat(t.WaveStrength, 0, 10)
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func clampFloat(v, lo, hi float32) float32 {
	return max(lo, min(v, hi))
}

// Store holds the live settings. The frame loop reads it once per frame
// while the file watcher may replace it from another goroutine.
type Store struct {
	mu       sync.RWMutex
	settings Settings
}

// NewStore wraps initial settings.
func NewStore(s Settings) *Store {
	return &Store{settings: s}
}

// Get returns a copy of the current settings.
func (st *Store) Get() Settings {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.settings
}

// Toggles returns the current frame toggles.
func (st *Store) Toggles() scene.Toggles {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.settings.Toggles
}

// Set replaces the settings.
func (st *Store) Set(s Settings) {
	st.mu.Lock()
	st.settings = s
	st.mu.Unlock()
}

// UpdateToggles applies fn to the live toggles, e.g. from a key binding.
func (st *Store) UpdateToggles(fn func(t *scene.Toggles)) {
	st.mu.Lock()
	fn(&st.settings.Toggles)
	st.mu.Unlock()
}

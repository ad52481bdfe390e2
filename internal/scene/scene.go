package scene

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// Object is one drawable instance.
type Object struct {
	ID          uuid.UUID
	Name        string
	MeshRef     string
	Material    *Material
	Translation mgl32.Vec3
	Scale       mgl32.Vec3

	// Evolve, when set, animates the object once per frame.
	Evolve func(o *Object, t, dt float64)
}

// NewObject creates an object with a fresh identity.
func NewObject(name, mesh string, material *Material, translation, scale mgl32.Vec3) *Object {
	return &Object{
		ID:          uuid.New(),
		Name:        name,
		MeshRef:     mesh,
		Material:    material,
		Translation: translation,
		Scale:       scale,
	}
}

// Model returns the object-to-world transform.
func (o *Object) Model() mgl32.Mat4 {
	t := mgl32.Translate3D(o.Translation.X(), o.Translation.Y(), o.Translation.Z())
	return t.Mul4(mgl32.Scale3D(o.Scale.X(), o.Scale.Y(), o.Scale.Z()))
}

// Light is a point light in world space.
type Light struct {
	Position mgl32.Vec3
	Color    mgl32.Vec3
}

// Toggles are the frame-level switches read by the post-processing passes.
type Toggles struct {
	SSREnabled     bool    `toml:"ssr_enabled"`
	SSRMaxDistance float32 `toml:"ssr_max_distance"`
	BloomEnabled   bool    `toml:"bloom_enabled"`
	BloomIntensity float32 `toml:"bloom_intensity"`
	BloomThreshold float32 `toml:"bloom_threshold"`
	SharpenEnabled bool    `toml:"sharpen_enabled"`
	GammaEnabled   bool    `toml:"gamma_enabled"`
	Gamma          float32 `toml:"gamma"`
	WaveStrength   float32 `toml:"wave_strength"`
	MirrorEnabled  bool    `toml:"mirror_enabled"`
}

// DefaultToggles enables every effect with the values the demo scenes use.
func DefaultToggles() Toggles {
	return Toggles{
		SSREnabled:     true,
		SSRMaxDistance: 10,
		BloomEnabled:   true,
		BloomIntensity: 0.8,
		BloomThreshold: 0.9,
		SharpenEnabled: true,
		GammaEnabled:   true,
		Gamma:          2.2,
		WaveStrength:   1,
		MirrorEnabled:  true,
	}
}

// Scene is the snapshot every pass reads.
type Scene struct {
	Name    string
	Objects []*Object
	Lights  []Light
	Camera  Camera
	Toggles Toggles
}

// Add appends objects to the scene.
func (s *Scene) Add(objs ...*Object) {
	s.Objects = append(s.Objects, objs...)
}

// Remove drops the objects named name and reports whether any was removed.
func (s *Scene) Remove(name string) bool {
	kept := s.Objects[:0]
	removed := false
	for _, o := range s.Objects {
		if o.Name == name {
			removed = true
			continue
		}
		kept = append(kept, o)
	}
	clear(s.Objects[len(kept):])
	s.Objects = kept
	return removed
}

// Find returns the first object named name.
func (s *Scene) Find(name string) *Object {
	for _, o := range s.Objects {
		if o.Name == name {
			return o
		}
	}
	return nil
}

// Evolve advances every animated object.
func (s *Scene) Evolve(t, dt float64) {
	for _, o := range s.Objects {
		if o.Evolve != nil {
			o.Evolve(o, t, dt)
		}
	}
}

// Frame carries the per-frame framebuffer size and timing.
type Frame struct {
	Width     int
	Height    int
	DeltaTime float64
}

// SceneState is the read-only input of one render.
type SceneState struct {
	Scene *Scene
	Frame Frame
	// Time is the elapsed time in seconds.
	Time float64
}

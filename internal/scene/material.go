package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Tag is a capability label deciding per-pass inclusion. Tags never select behavior.
type Tag string

const (
	TagEnvironment  Tag = "environment"
	TagTerrain      Tag = "terrain"
	TagTransparent  Tag = "transparent"
	TagReflective   Tag = "reflective"
	TagNoBlinnPhong Tag = "no_blinn_phong"
	TagWater        Tag = "water"
)

// Tags is a set of capability tags.
type Tags map[Tag]struct{}

// NewTags builds a set from the given tags.
func NewTags(tags ...Tag) Tags {
	t := make(Tags, len(tags))
	for _, tag := range tags {
		t[tag] = struct{}{}
	}
	return t
}

func (t Tags) Has(tag Tag) bool {
	_, ok := t[tag]
	return ok
}

// HasAny reports whether at least one of tags is present.
func (t Tags) HasAny(tags ...Tag) bool {
	for _, tag := range tags {
		if t.Has(tag) {
			return true
		}
	}
	return false
}

// Kind is the material variant.
type Kind int

const (
	KindDiffuse Kind = iota
	KindBackground
	KindReflective
	KindTransparent
	KindTerrain
	KindWater
)

func (k Kind) String() string {
	switch k {
	case KindBackground:
		return "background"
	case KindReflective:
		return "reflective"
	case KindTransparent:
		return "transparent"
	case KindTerrain:
		return "terrain"
	case KindWater:
		return "water"
	default:
		return "diffuse"
	}
}

// TerrainBands are the elevation colors of a terrain material.
type TerrainBands struct {
	// WaterLevel is the mesh elevation at or below which the water band applies.
	WaterLevel     float32
	WaterColor     mgl32.Vec3
	WaterShininess float32
	GrassColor     mgl32.Vec3
	GrassShininess float32
	PeakColor      mgl32.Vec3
	PeakShininess  float32
}

// Material describes how a surface interacts with light.
type Material struct {
	Name string
	Kind Kind
	Tags Tags

	Color      mgl32.Vec3
	Texture    string // resource image name, empty for flat color
	NormalMap  string
	Specular   mgl32.Vec3
	Shininess  float32
	Opacity    float32
	IOR        float32
	Reflective bool

	Terrain *TerrainBands
}

// Defaults shared by every material variant.
var (
	DefaultColor     = mgl32.Vec3{1, 0, 1} // magenta marks a missing texture
	DefaultShininess = float32(8)
	DefaultSpecular  = mgl32.Vec3{0.2, 0.2, 0.2}
	DefaultOpacity   = float32(1)
	DefaultIOR       = float32(1.5)
)

func base(name string, kind Kind, tags ...Tag) *Material {
	return &Material{
		Name:      name,
		Kind:      kind,
		Tags:      NewTags(tags...),
		Color:     DefaultColor,
		Specular:  DefaultSpecular,
		Shininess: DefaultShininess,
		Opacity:   DefaultOpacity,
		IOR:       DefaultIOR,
	}
}

// NewBackground is an unlit environment material, usually a sky sphere.
func NewBackground(name, texture string) *Material {
	m := base(name, KindBackground, TagEnvironment, TagNoBlinnPhong)
	m.Texture = texture
	m.Shininess = 0
	m.Specular = mgl32.Vec3{}
	return m
}

// NewDiffuse is a Blinn-Phong shaded material.
func NewDiffuse(name string, color mgl32.Vec3, texture string, shininess float32) *Material {
	m := base(name, KindDiffuse)
	m.Color = color
	m.Texture = texture
	m.Shininess = shininess
	m.Specular = mgl32.Vec3{0.05, 0.05, 0.05}
	return m
}

// NewReflective is a mirror material captured through the environment cube.
func NewReflective(name string) *Material {
	m := base(name, KindReflective, TagReflective)
	m.Color = mgl32.Vec3{0.8, 0.8, 0.8}
	m.Specular = mgl32.Vec3{0.9, 0.9, 0.9}
	m.Shininess = 10
	m.Reflective = true
	return m
}

// NewTransparent is a glass material rendered in the transparency buffer.
func NewTransparent(name string, color mgl32.Vec3, opacity, ior float32) *Material {
	m := base(name, KindTransparent, TagTransparent)
	m.Color = color
	m.Opacity = opacity
	m.IOR = ior
	m.Shininess = 40
	m.Specular = mgl32.Vec3{0.8, 0.9, 1.0}
	m.Reflective = true
	return m
}

// NewTerrain is an elevation-banded terrain material.
func NewTerrain(name string, bands TerrainBands) *Material {
	m := base(name, KindTerrain, TagTerrain, TagNoBlinnPhong)
	m.Terrain = &bands
	m.Specular = mgl32.Vec3{0.1, 0.1, 0.1}
	return m
}

// NewWater is an animated, alpha-blended water surface.
func NewWater(name string) *Material {
	m := base(name, KindWater, TagWater, TagNoBlinnPhong)
	m.Color = mgl32.Vec3{0.0, 0.4, 0.45}
	m.Opacity = 0.3
	m.Shininess = 60
	m.Specular = mgl32.Vec3{0.5, 0.6, 0.7}
	m.Reflective = true
	m.Texture = "water"
	m.NormalMap = "water-normal"
	return m
}

// Preset materials used by the demo scenes.
var (
	SunsetSky = NewBackground("sunset_sky", "sky_sunset")
	Sky       = NewBackground("sky", "sky_day")
	Gray      = NewDiffuse("gray", mgl32.Vec3{0.4, 0.4, 0.4}, "", 0.5)
	Gold      = NewDiffuse("gold", mgl32.Vec3{0.9, 0.7, 0.2}, "", 14)
	Wood      = NewDiffuse("wood", mgl32.Vec3{0.6, 0.4, 0.2}, "", 14)
	Sand      = NewDiffuse("sand", mgl32.Vec3{0.9, 0.8, 0.6}, "", 8)
	Mirror    = NewReflective("mirror")
	Glass     = NewTransparent("glass", mgl32.Vec3{0.6, 0.8, 1.0}, 0.2, 1.4)
	Water     = NewWater("water")
	Terrain   = NewTerrain("terrain", TerrainBands{
		WaterLevel:     -0.03125,
		WaterColor:     mgl32.Vec3{0.29, 0.51, 0.62},
		WaterShininess: 30,
		GrassColor:     mgl32.Vec3{0.33, 0.43, 0.18},
		GrassShininess: 5,
		PeakColor:      mgl32.Vec3{0.8, 0.5, 0.4},
		PeakShininess:  10,
	})
)

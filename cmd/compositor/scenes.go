package main

import (
	"fmt"
	"math"
	"slices"

	"compositor/internal/resources"
	"compositor/internal/scene"
	"compositor/internal/terrain"

	"github.com/go-gl/mathgl/mgl32"
)

const terrainMesh = "terrain"

type sceneBuilder func(res *resources.Manager, seed int64, w, h int) *scene.Scene

var scenes = map[string]sceneBuilder{
	"tutorial": tutorialScene,
	"bottle":   bottleScene,
	"island":   islandScene,
}

// sceneNames lists the demo scenes for usage output.
func sceneNames() []string {
	names := make([]string, 0, len(scenes))
	for name := range scenes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func buildScene(name string, res *resources.Manager, seed int64, w, h int) (*scene.Scene, error) {
	build, ok := scenes[name]
	if !ok {
		return nil, fmt.Errorf("unknown scene %q (have %v)", name, sceneNames())
	}
	sc := build(res, seed, w, h)
	sc.Name = name
	return sc, nil
}

func sky() *scene.Object {
	return scene.NewObject("sky", resources.MeshEnvSphere, scene.Sky, mgl32.Vec3{}, mgl32.Vec3{100, 100, 100})
}

func sun() scene.Light {
	return scene.Light{Position: mgl32.Vec3{-20, -30, 40}, Color: mgl32.Vec3{1, 0.95, 0.85}}
}

// tutorialScene is a pulsing mirror sphere over a floor.
func tutorialScene(_ *resources.Manager, _ int64, w, h int) *scene.Scene {
	sc := &scene.Scene{
		Camera: scene.NewTurntableCamera(w, h),
		Lights: []scene.Light{sun()},
	}
	mirror := scene.NewObject("mirror_ball", resources.MeshSphere, scene.Mirror, mgl32.Vec3{0, 0, 1.5}, mgl32.Vec3{1.5, 1.5, 1.5})
	mirror.Evolve = func(o *scene.Object, t, _ float64) {
		s := float32(1.5 + 0.25*math.Sin(2*t))
		o.Scale = mgl32.Vec3{s, s, s}
	}
	sc.Add(
		sky(),
		scene.NewObject("floor", resources.MeshCube, scene.Sand, mgl32.Vec3{0, 0, -0.5}, mgl32.Vec3{16, 16, 1}),
		mirror,
		scene.NewObject("gold_ball", resources.MeshSphere, scene.Gold, mgl32.Vec3{4, 2, 1}, mgl32.Vec3{1, 1, 1}),
	)
	return sc
}

// bottleScene is a glass bottle on a wooden table next to a water basin.
func bottleScene(_ *resources.Manager, _ int64, w, h int) *scene.Scene {
	cam := scene.NewTurntableCamera(w, h)
	cam.DistanceFactor = 0.8
	cam.LookAt = mgl32.Vec3{0, 0, 1}
	sc := &scene.Scene{
		Camera: cam,
		Lights: []scene.Light{sun(), {Position: mgl32.Vec3{6, 4, 5}, Color: mgl32.Vec3{0.3, 0.3, 0.4}}},
	}
	sc.Add(
		sky(),
		scene.NewObject("table", resources.MeshCube, scene.Wood, mgl32.Vec3{0, 0, -0.25}, mgl32.Vec3{10, 6, 0.5}),
		scene.NewObject("bottle", resources.MeshSphere, scene.Glass, mgl32.Vec3{-1.5, 0, 1.5}, mgl32.Vec3{0.8, 0.8, 1.5}),
		scene.NewObject("neck", resources.MeshCube, scene.Glass, mgl32.Vec3{-1.5, 0, 3.3}, mgl32.Vec3{0.3, 0.3, 0.8}),
		scene.NewObject("basin", resources.MeshCube, scene.Gray, mgl32.Vec3{2.5, 0, 0.3}, mgl32.Vec3{3, 3, 0.6}),
		scene.NewObject("water", resources.MeshWater, scene.Water, mgl32.Vec3{2.5, 0, 0.65}, mgl32.Vec3{2.8, 2.8, 1}),
	)
	return sc
}

// islandScene is generated terrain in a sea with a gold marker on the peak.
func islandScene(res *resources.Manager, seed int64, w, h int) *scene.Scene {
	const (
		size   = 24
		height = 6
	)
	hm := terrain.Generate(96, 96, seed, terrain.DefaultOctaves())
	waterLevel := scene.Terrain.Terrain.WaterLevel
	res.AddMesh(terrainMesh, terrain.BuildMesh(terrainMesh, hm, waterLevel))

	peak, px, py := float32(-1), 0, 0
	for y := 0; y < hm.Height; y++ {
		for x := 0; x < hm.Width; x++ {
			if v := hm.At(x, y); v > peak {
				peak, px, py = v, x, y
			}
		}
	}
	marker := mgl32.Vec3{
		(float32(px)/float32(hm.Width) - 0.5) * size,
		(float32(py)/float32(hm.Height) - 0.5) * size,
		(peak-0.5)*height + 0.5,
	}

	cam := scene.NewTurntableCamera(w, h)
	cam.DistanceFactor = 1.6
	sc := &scene.Scene{
		Camera: cam,
		Lights: []scene.Light{sun()},
	}
	sc.Add(
		sky(),
		scene.NewObject("island", terrainMesh, scene.Terrain, mgl32.Vec3{}, mgl32.Vec3{size, size, height}),
		// Just above the flattened sea floor of the terrain mesh.
		scene.NewObject("sea", resources.MeshWater, scene.Water,
			mgl32.Vec3{0, 0, waterLevel*height + 0.02}, mgl32.Vec3{size * 1.5, size * 1.5, 1}),
		scene.NewObject("marker", resources.MeshSphere, scene.Gold, marker, mgl32.Vec3{0.5, 0.5, 0.5}),
	)
	return sc
}

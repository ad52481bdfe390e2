package render

import (
	"testing"

	"compositor/internal/gpu"
	"compositor/internal/gpu/softgpu"
	"compositor/internal/resources"
	"compositor/internal/scene"
	"compositor/internal/terrain"

	"github.com/go-gl/mathgl/mgl32"
)

// glassScene is a glass ball at the origin, optionally with a red ball on
// the line of sight behind it.
func glassScene(behind bool) *scene.Scene {
	cam := scene.NewTurntableCamera(testWidth, testHeight)
	sc := &scene.Scene{
		Camera:  cam,
		Toggles: allDisabled(),
		Lights:  []scene.Light{{Position: mgl32.Vec3{5, -5, 8}, Color: mgl32.Vec3{1, 1, 1}}},
	}
	sc.Add(scene.NewObject("glass", resources.MeshSphere, scene.Glass, mgl32.Vec3{}, mgl32.Vec3{2, 2, 2}))
	if behind {
		red := scene.NewDiffuse("red", mgl32.Vec3{1, 0, 0}, "", 8)
		sc.Add(scene.NewObject("red_ball", resources.MeshSphere, red, cam.Eye().Mul(-0.4), mgl32.Vec3{1.5, 1.5, 1.5}))
	}
	return sc
}

func TestGlassShowsWhatIsBehind(t *testing.T) {
	cx, cy := testWidth/2, testHeight/2
	var final, transp [2]mgl32.Vec4
	for i, behind := range []bool{false, true} {
		r, d := newTestRenderer(t, testOptions())
		r.Render(testState(glassScene(behind), testWidth, testHeight))
		if !behind {
			if got := d.Pixel(texture(t, r, TargetBase), cx, cy); got != clearColor {
				t.Fatalf("glass drawn into base: got %v, want %v", got, clearColor)
			}
		}
		final[i] = d.Pixel(texture(t, r, TargetFinalColor), cx, cy)
		transp[i] = d.Pixel(texture(t, r, TargetTransparency), cx, cy)
	}

	if transp[0] == transp[1] {
		t.Fatalf("refraction ignores the scene behind the glass: %v", transp[0])
	}
	if final[1].X() <= final[0].X() {
		t.Fatalf("red ball behind glass: got red %v, want more than %v", final[1].X(), final[0].X())
	}
}

// mixedScene holds one glass, one water and one terrain object.
func mixedScene(res *resources.Manager) *scene.Scene {
	hm := terrain.Generate(8, 8, 7, terrain.DefaultOctaves())
	res.AddMesh("test_terrain", terrain.BuildMesh("test_terrain", hm, scene.Terrain.Terrain.WaterLevel))

	sc := &scene.Scene{
		Camera:  scene.NewTurntableCamera(testWidth, testHeight),
		Toggles: allDisabled(),
		Lights:  []scene.Light{{Position: mgl32.Vec3{5, -5, 8}, Color: mgl32.Vec3{1, 1, 1}}},
	}
	sc.Toggles.MirrorEnabled = false
	sc.Add(
		scene.NewObject("land", "test_terrain", scene.Terrain, mgl32.Vec3{0, 0, -2}, mgl32.Vec3{12, 12, 2}),
		scene.NewObject("lake", resources.MeshWater, scene.Water, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{12, 12, 1}),
		scene.NewObject("bottle", resources.MeshSphere, scene.Glass, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{2, 2, 2}),
	)
	return sc
}

func renderLogged(t *testing.T, build func(res *resources.Manager) *scene.Scene) []softgpu.DrawRecord {
	t.Helper()
	d := softgpu.New(testWidth, testHeight)
	res := resources.NewManager()
	sc := build(res)
	r, err := NewSceneRenderer(d, res, testOptions())
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	d.LogDraws(true)
	r.Render(testState(sc, testWidth, testHeight))
	return d.Draws()
}

func TestTransparentObjectsStayOutOfBase(t *testing.T) {
	draws := renderLogged(t, mixedScene)

	counts := map[string]int{}
	for _, rec := range draws {
		switch rec.Label {
		case "bottle":
			if rec.Framebuffer == TargetBase {
				t.Fatalf("glass drawn into base by %s", rec.Program)
			}
			if rec.Program == "blinn_phong" || rec.Program == "water" {
				t.Fatalf("glass drawn by %s", rec.Program)
			}
		case "lake":
			if rec.Program == "pre_processing" && (rec.Framebuffer == TargetBase || rec.Framebuffer == TargetTransparency) {
				t.Fatalf("water drawn by the %s depth prepass", rec.Framebuffer)
			}
			if rec.Framebuffer == TargetBase || rec.Program == "glass" || rec.Program == "blinn_phong" {
				t.Fatalf("water drawn by %s into %s", rec.Program, rec.Framebuffer)
			}
		case "land":
			if rec.Program == "blinn_phong" || rec.Program == "glass" || rec.Program == "water" {
				t.Fatalf("terrain drawn by %s", rec.Program)
			}
		}

		switch rec.Program {
		case "glass", "water":
			if rec.Framebuffer != TargetTransparency {
				t.Fatalf("%s drew into %s", rec.Program, rec.Framebuffer)
			}
			if rec.Depth != transparentDepth() {
				t.Fatalf("%s depth: got %+v, want test on and write off", rec.Program, rec.Depth)
			}
			if rec.Blend != gpu.AlphaBlend() {
				t.Fatalf("%s blend: got %+v, want alpha blend", rec.Program, rec.Blend)
			}
		case "terrain":
			if rec.Framebuffer != TargetBase || rec.Blend != gpu.Additive() {
				t.Fatalf("terrain drew into %s with %+v", rec.Framebuffer, rec.Blend)
			}
		}
		counts[rec.Program+"/"+rec.Label]++
	}

	for _, key := range []string{"glass/bottle", "water/lake", "terrain/land"} {
		if counts[key] == 0 {
			t.Fatalf("missing %s draw: got %v", key, counts)
		}
	}
	if counts["glass/lake"]+counts["glass/land"]+counts["water/bottle"]+counts["water/land"] != 0 {
		t.Fatalf("pass filters leaked: %v", counts)
	}
}

func TestWaterWavesFollowTimeAndStrength(t *testing.T) {
	frame := func(strength float32, time float64) []float32 {
		t.Helper()
		r, d := newTestRenderer(t, testOptions())
		sc := &scene.Scene{
			Camera:  scene.NewTurntableCamera(testWidth, testHeight),
			Toggles: allDisabled(),
			Lights:  []scene.Light{{Position: mgl32.Vec3{5, -5, 8}, Color: mgl32.Vec3{1, 1, 1}}},
		}
		sc.Toggles.WaveStrength = strength
		sc.Add(scene.NewObject("lake", resources.MeshWater, scene.Water, mgl32.Vec3{}, mgl32.Vec3{20, 20, 1}))
		state := testState(sc, testWidth, testHeight)
		state.Time = time
		r.Render(state)
		return d.Pixels(texture(t, r, TargetTransparency))
	}
	equal := func(a, b []float32) bool {
		for i := range a {
			if a[i] != b[i] {
				return false
			}
		}
		return len(a) == len(b)
	}

	if !equal(frame(0, 0), frame(0, 1.3)) {
		t.Fatalf("still water changed over time")
	}
	if equal(frame(1, 0), frame(1, 1.3)) {
		t.Fatalf("waves did not move over time")
	}
	if equal(frame(0, 1.3), frame(1, 1.3)) {
		t.Fatalf("wave strength had no effect")
	}
}

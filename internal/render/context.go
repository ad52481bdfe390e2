package render

import (
	"compositor/internal/scene"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// Context is the input of one base-stage render. The orchestrator builds
// the top-level context; the mirror pass builds one per cube face with its
// own object excluded and Bounce incremented.
type Context struct {
	State   *scene.SceneState
	Camera  scene.Camera
	Exclude uuid.UUID
	Bounce  int
}

func (c Context) scene() *scene.Scene { return c.State.Scene }

func (c Context) toggles() scene.Toggles { return c.State.Scene.Toggles }

func (c Context) excluded(o *scene.Object) bool {
	return c.Exclude != uuid.Nil && o.ID == c.Exclude
}

// viewLight is a light transformed into the camera's view space.
type viewLight struct {
	Position mgl32.Vec3
	Color    mgl32.Vec3
}

// lights returns the scene lights in view space. A scene without lights
// yields one black light so ambient terms are still applied once.
func (c Context) lights() []viewLight {
	view := c.Camera.View()
	src := c.scene().Lights
	if len(src) == 0 {
		return []viewLight{{}}
	}
	out := make([]viewLight, len(src))
	for i, l := range src {
		out[i] = viewLight{
			Position: view.Mul4x1(l.Position.Vec4(1)).Vec3(),
			Color:    l.Color,
		}
	}
	return out
}

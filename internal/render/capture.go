package render

import (
	"fmt"

	"compositor/internal/gpu"
	"compositor/internal/scene"

	"github.com/go-gl/mathgl/mgl32"
)

// EnvCapture renders the six faces of a cube around a point. The mirror
// pass uses it for environment maps and the shadows pass for light
// distance maps.
type EnvCapture struct {
	device gpu.Device
	cube   gpu.CubeTarget
	Near   float32
	Far    float32
}

// NewEnvCapture allocates a size x size cube target.
func NewEnvCapture(device gpu.Device, label string, size int) (*EnvCapture, error) {
	cube, err := device.CreateCubeTarget(label, size)
	if err != nil {
		return nil, fmt.Errorf("create capture %s: %w", label, err)
	}
	return &EnvCapture{device: device, cube: cube, Near: 0.01, Far: 256}, nil
}

// Capture clears each face to clear, computes the face camera's matrices
// for objects and runs draw with it. The previous framebuffer is rebound
// afterwards.
func (c *EnvCapture) Capture(center mgl32.Vec3, clear mgl32.Vec4, objects []*scene.Object, draw func(cam *scene.CubeFaceCamera)) gpu.CubeTexture {
	for face := 0; face < 6; face++ {
		prev := c.device.BindFramebuffer(c.cube.Face(face))
		c.device.Clear(clear, clearDepth)
		cam := scene.NewCubeFaceCamera(center, face, c.Near, c.Far)
		cam.ComputeObjectMatrices(objects)
		draw(cam)
		c.device.BindFramebuffer(prev)
	}
	return c.cube.Texture()
}

// Release frees the cube target.
func (c *EnvCapture) Release() { c.cube.Release() }

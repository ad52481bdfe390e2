package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// ObjectMatrices are the per-object transforms a camera computes each frame.
type ObjectMatrices struct {
	ModelView           mgl32.Mat4
	ModelViewProjection mgl32.Mat4
	NormalsModelView    mgl32.Mat3
}

// Camera produces view/projection and caches per-object matrices for one frame.
type Camera interface {
	UpdateFormatRatio(width, height int)
	ComputeObjectMatrices(objects []*Object)
	Matrices(o *Object) (ObjectMatrices, bool)
	View() mgl32.Mat4
	Projection() mgl32.Mat4
}

// matrixCache is the object matrix cache shared by camera implementations.
type matrixCache struct {
	objects map[*Object]ObjectMatrices
}

func (c *matrixCache) compute(objects []*Object, view, proj mgl32.Mat4) {
	if c.objects == nil {
		c.objects = make(map[*Object]ObjectMatrices, len(objects))
	}
	clear(c.objects)
	for _, o := range objects {
		mv := view.Mul4(o.Model())
		c.objects[o] = ObjectMatrices{
			ModelView:           mv,
			ModelViewProjection: proj.Mul4(mv),
			NormalsModelView:    mv.Mat3().Inv().Transpose(),
		}
	}
}

func (c *matrixCache) Matrices(o *Object) (ObjectMatrices, bool) {
	m, ok := c.objects[o]
	return m, ok
}

// Preset is a stored turntable view.
type Preset struct {
	DistanceFactor float32
	AngleZ         float32
	AngleY         float32
	LookAt         mgl32.Vec3
}

// TurntableCamera orbits a look-at point in a Z-up world.
type TurntableCamera struct {
	matrixCache

	AngleZ         float32
	AngleY         float32
	DistanceBase   float32
	DistanceFactor float32
	LookAt         mgl32.Vec3

	FOV         float32
	NearPlane   float32
	FarPlane    float32
	AspectRatio float32
}

// NewTurntableCamera creates a camera sized for a width x height viewport.
func NewTurntableCamera(width, height int) *TurntableCamera {
	c := &TurntableCamera{
		AngleZ:         -math.Pi / 2,
		AngleY:         -math.Pi / 6,
		DistanceBase:   15,
		DistanceFactor: 1,
		FOV:            60,
		NearPlane:      0.01,
		FarPlane:       512,
	}
	c.UpdateFormatRatio(width, height)
	return c
}

// UpdateFormatRatio tracks the viewport aspect ratio.
func (c *TurntableCamera) UpdateFormatRatio(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.AspectRatio = float32(width) / float32(height)
}

// Eye returns the camera position in world space.
func (c *TurntableCamera) Eye() mgl32.Vec3 {
	d := c.DistanceBase * c.DistanceFactor
	cy := float32(math.Cos(float64(c.AngleY)))
	offset := mgl32.Vec3{
		d * cy * float32(math.Cos(float64(c.AngleZ))),
		d * cy * float32(math.Sin(float64(c.AngleZ))),
		-d * float32(math.Sin(float64(c.AngleY))),
	}
	return c.LookAt.Add(offset)
}

func (c *TurntableCamera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Eye(), c.LookAt, mgl32.Vec3{0, 0, 1})
}

func (c *TurntableCamera) Projection() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FOV), c.AspectRatio, c.NearPlane, c.FarPlane)
}

func (c *TurntableCamera) ComputeObjectMatrices(objects []*Object) {
	c.compute(objects, c.View(), c.Projection())
}

// Orbit rotates around the look-at point; AngleY is clamped short of the poles.
func (c *TurntableCamera) Orbit(dz, dy float32) {
	c.AngleZ += dz
	c.AngleY = mgl32.Clamp(c.AngleY+dy, -math.Pi/2+0.01, math.Pi/2-0.01)
}

// Zoom scales the orbit distance.
func (c *TurntableCamera) Zoom(factor float32) {
	c.DistanceFactor = mgl32.Clamp(c.DistanceFactor*factor, 0.01, 4)
}

// SetPreset jumps to a stored view.
func (c *TurntableCamera) SetPreset(p Preset) {
	c.DistanceFactor = p.DistanceFactor
	c.AngleZ = p.AngleZ
	c.AngleY = p.AngleY
	c.LookAt = p.LookAt
}

// Cube face directions and up vectors, in GL face order.
var (
	cubeFaceDirs = [6]mgl32.Vec3{
		{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1},
	}
	cubeFaceUps = [6]mgl32.Vec3{
		{0, -1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1}, {0, -1, 0}, {0, -1, 0},
	}
)

// CubeFaceCamera looks down one cube map face from Eye with a 90 degree frustum.
type CubeFaceCamera struct {
	matrixCache

	Eye       mgl32.Vec3
	Face      int
	NearPlane float32
	FarPlane  float32
}

// NewCubeFaceCamera creates the camera for face (0..5) centered on eye.
func NewCubeFaceCamera(eye mgl32.Vec3, face int, near, far float32) *CubeFaceCamera {
	return &CubeFaceCamera{Eye: eye, Face: face, NearPlane: near, FarPlane: far}
}

// UpdateFormatRatio is a no-op: cube faces are square.
func (c *CubeFaceCamera) UpdateFormatRatio(int, int) {}

func (c *CubeFaceCamera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Eye, c.Eye.Add(cubeFaceDirs[c.Face]), cubeFaceUps[c.Face])
}

func (c *CubeFaceCamera) Projection() mgl32.Mat4 {
	return mgl32.Perspective(math.Pi/2, 1, c.NearPlane, c.FarPlane)
}

func (c *CubeFaceCamera) ComputeObjectMatrices(objects []*Object) {
	c.compute(objects, c.View(), c.Projection())
}

// ViewToWorld returns the rotation taking view-space directions to world space.
func ViewToWorld(view mgl32.Mat4) mgl32.Mat3 {
	return view.Mat3().Transpose()
}

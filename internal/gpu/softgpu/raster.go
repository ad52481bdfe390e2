package softgpu

import (
	"compositor/internal/gpu"

	"github.com/go-gl/mathgl/mgl32"
)

// vertex is a transformed vertex with the varyings of basic.vert.
type vertex struct {
	clip   mgl32.Vec4
	model  mgl32.Vec3
	view   mgl32.Vec3
	normal mgl32.Vec3
	uv     mgl32.Vec2
}

func lerpVertex(a, b vertex, t float32) vertex {
	return vertex{
		clip:   a.clip.Add(b.clip.Sub(a.clip).Mul(t)),
		model:  a.model.Add(b.model.Sub(a.model).Mul(t)),
		view:   a.view.Add(b.view.Sub(a.view).Mul(t)),
		normal: a.normal.Add(b.normal.Sub(a.normal).Mul(t)),
		uv:     a.uv.Add(b.uv.Sub(a.uv).Mul(t)),
	}
}

func (d *Device) drawMesh(fb *framebuffer, k Kernel, cmd gpu.DrawCommand) {
	u := cmd.Uniforms
	mvp := u.Mat4("mat_model_view_projection")
	mv := u.Mat4("mat_model_view")
	nm := u.Mat3("mat_normals_model_view")

	mesh := cmd.Mesh
	verts := make([]vertex, len(mesh.Positions))
	for i, p := range mesh.Positions {
		n := mesh.Normal(uint32(i))
		verts[i] = vertex{
			clip:   mvp.Mul4x1(p.Vec4(1)),
			model:  p,
			view:   mv.Mul4x1(p.Vec4(1)).Vec3(),
			normal: nm.Mul3x1(n),
			uv:     mesh.TexCoord(uint32(i)),
		}
	}

	r := rasterizer{dev: d, fb: fb, kernel: k, cmd: cmd}
	var poly [8]vertex
	for _, f := range mesh.Faces {
		clipped := clipNear(poly[:0], verts[f[0]], verts[f[1]], verts[f[2]])
		for i := 2; i < len(clipped); i++ {
			r.triangle(clipped[0], clipped[i-1], clipped[i])
		}
	}
}

// clipNear clips a triangle against the near plane z >= -w.
func clipNear(out []vertex, a, b, c vertex) []vertex {
	in := [3]vertex{a, b, c}
	dist := func(v vertex) float32 { return v.clip.Z() + v.clip.W() }
	for i := 0; i < 3; i++ {
		cur, next := in[i], in[(i+1)%3]
		dc, dn := dist(cur), dist(next)
		if dc >= 0 {
			out = append(out, cur)
		}
		if (dc >= 0) != (dn >= 0) {
			out = append(out, lerpVertex(cur, next, dc/(dc-dn)))
		}
	}
	return out
}

type rasterizer struct {
	dev    *Device
	fb     *framebuffer
	kernel Kernel
	cmd    gpu.DrawCommand
}

type screenVertex struct {
	x, y, z float32
	invW    float32
	v       vertex
}

func (r *rasterizer) toScreen(v vertex) screenVertex {
	w, h := r.fb.Size()
	invW := 1 / v.clip.W()
	return screenVertex{
		x:    (v.clip.X()*invW + 1) * 0.5 * float32(w),
		y:    (v.clip.Y()*invW + 1) * 0.5 * float32(h),
		z:    (v.clip.Z()*invW + 1) * 0.5,
		invW: invW,
		v:    v,
	}
}

func edge(a, b screenVertex, px, py float32) float32 {
	return (b.x-a.x)*(py-a.y) - (b.y-a.y)*(px-a.x)
}

// topLeft reports whether the counter-clockwise edge a->b owns the pixels
// lying exactly on it.
func topLeft(a, b screenVertex) bool {
	return b.y < a.y || (a.y == b.y && b.x < a.x)
}

func (r *rasterizer) triangle(a, b, c vertex) {
	s0, s1, s2 := r.toScreen(a), r.toScreen(b), r.toScreen(c)
	area := edge(s0, s1, s2.x, s2.y)
	if area == 0 {
		return
	}
	if area < 0 {
		s1, s2 = s2, s1
		area = -area
	}

	w, h := r.fb.Size()
	minX := max(0, int(min(s0.x, s1.x, s2.x)))
	maxX := min(w-1, int(max(s0.x, s1.x, s2.x)))
	minY := max(0, int(min(s0.y, s1.y, s2.y)))
	maxY := min(h-1, int(max(s0.y, s1.y, s2.y)))

	tl0, tl1, tl2 := topLeft(s1, s2), topLeft(s2, s0), topLeft(s0, s1)
	depth := r.cmd.Depth

	for py := minY; py <= maxY; py++ {
		fy := float32(py) + 0.5
		for px := minX; px <= maxX; px++ {
			fx := float32(px) + 0.5
			w0 := edge(s1, s2, fx, fy)
			w1 := edge(s2, s0, fx, fy)
			w2 := edge(s0, s1, fx, fy)
			if !covers(w0, tl0) || !covers(w1, tl1) || !covers(w2, tl2) {
				continue
			}
			b0, b1, b2 := w0/area, w1/area, w2/area

			z := b0*s0.z + b1*s1.z + b2*s2.z
			if z < 0 || z > 1 {
				continue
			}
			idx := py*w + px
			if depth.Test && !depthPass(depth.Func, z, r.fb.depth[idx]) {
				continue
			}

			// Perspective-correct weights.
			p0, p1, p2 := b0*s0.invW, b1*s1.invW, b2*s2.invW
			norm := 1 / (p0 + p1 + p2)
			p0, p1, p2 = p0*norm, p1*norm, p2*norm

			frag := Fragment{
				Coord:  mgl32.Vec2{fx, fy},
				Model:  blend3(s0.v.model, s1.v.model, s2.v.model, p0, p1, p2),
				View:   blend3(s0.v.view, s1.v.view, s2.v.view, p0, p1, p2),
				Normal: blend3(s0.v.normal, s1.v.normal, s2.v.normal, p0, p1, p2),
				UV:     s0.v.uv.Mul(p0).Add(s1.v.uv.Mul(p1)).Add(s2.v.uv.Mul(p2)),
				U:      r.cmd.Uniforms,
				dev:    r.dev,
			}
			src := r.kernel(&frag)
			dst := r.fb.color.at(px, py)
			r.fb.color.set(px, py, applyBlend(r.cmd.Blend, src, dst))
			if depth.Test && depth.Write {
				r.fb.depth[idx] = z
			}
		}
	}
}

func covers(w float32, ownsEdge bool) bool {
	return w > 0 || (w == 0 && ownsEdge)
}

func blend3(a, b, c mgl32.Vec3, p0, p1, p2 float32) mgl32.Vec3 {
	return a.Mul(p0).Add(b.Mul(p1)).Add(c.Mul(p2))
}

func depthPass(f gpu.DepthFunc, z, stored float32) bool {
	switch f {
	case gpu.DepthLess:
		return z < stored
	case gpu.DepthAlways:
		return true
	default:
		return z <= stored
	}
}

func applyBlend(b gpu.BlendState, src, dst mgl32.Vec4) mgl32.Vec4 {
	if !b.Enabled {
		return src
	}
	fs := factor(b.SrcRGB, src, dst)
	fd := factor(b.DstRGB, src, dst)
	fsa := factor(b.SrcAlpha, src, dst)
	fda := factor(b.DstAlpha, src, dst)
	return mgl32.Vec4{
		src[0]*fs + dst[0]*fd,
		src[1]*fs + dst[1]*fd,
		src[2]*fs + dst[2]*fd,
		src[3]*fsa + dst[3]*fda,
	}
}

func factor(f gpu.BlendFactor, src, dst mgl32.Vec4) float32 {
	switch f {
	case gpu.BlendOne:
		return 1
	case gpu.BlendSrcAlpha:
		return src[3]
	case gpu.BlendOneMinusSrcAlpha:
		return 1 - src[3]
	case gpu.BlendDstAlpha:
		return dst[3]
	case gpu.BlendOneMinusDstAlpha:
		return 1 - dst[3]
	default:
		return 0
	}
}

package glgpu

import (
	"compositor/internal/gpu"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// vertexStride is position, normal and uv interleaved as float32.
const vertexStride = (3 + 3 + 2) * 4

type meshBuffers struct {
	vao, vbo, ebo uint32
	count         int32
}

func (m *meshBuffers) release() {
	gl.DeleteVertexArrays(1, &m.vao)
	gl.DeleteBuffers(1, &m.vbo)
	gl.DeleteBuffers(1, &m.ebo)
}

// ensureMesh uploads mesh on first use. Meshes are immutable once drawn.
func (d *Device) ensureMesh(mesh *gpu.Mesh) *meshBuffers {
	if b, ok := d.meshes[mesh]; ok {
		return b
	}

	vertices := make([]float32, 0, len(mesh.Positions)*8)
	for i, p := range mesh.Positions {
		n := mesh.Normal(uint32(i))
		uv := mesh.TexCoord(uint32(i))
		vertices = append(vertices, p[0], p[1], p[2], n[0], n[1], n[2], uv[0], uv[1])
	}
	indices := make([]uint32, 0, len(mesh.Faces)*3)
	for _, f := range mesh.Faces {
		indices = append(indices, f[0], f[1], f[2])
	}

	b := &meshBuffers{count: int32(len(indices))}
	gl.GenVertexArrays(1, &b.vao)
	gl.BindVertexArray(b.vao)

	gl.GenBuffers(1, &b.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.vbo)
	if len(vertices) > 0 {
		gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)
	}

	gl.GenBuffers(1, &b.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, b.ebo)
	if len(indices) > 0 {
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, gl.Ptr(indices), gl.STATIC_DRAW)
	}

	gl.EnableVertexAttribArray(gpu.AttribPosition)
	gl.VertexAttribPointerWithOffset(gpu.AttribPosition, 3, gl.FLOAT, false, vertexStride, 0)
	gl.EnableVertexAttribArray(gpu.AttribNormal)
	gl.VertexAttribPointerWithOffset(gpu.AttribNormal, 3, gl.FLOAT, false, vertexStride, 3*4)
	gl.EnableVertexAttribArray(gpu.AttribTexCoord)
	gl.VertexAttribPointerWithOffset(gpu.AttribTexCoord, 2, gl.FLOAT, false, vertexStride, 6*4)

	gl.BindVertexArray(0)
	d.meshes[mesh] = b
	return b
}

// Package shaders embeds the GLSL programs of the render graph.
package shaders

import (
	"embed"
	"fmt"

	"compositor/internal/gpu"
)

//go:embed *.vert *.frag
var files embed.FS

// Fullscreen programs run over the screen quad with quad.vert; every other
// program draws scene meshes with basic.vert.
var fullscreen = map[string]bool{
	"ssr":              true,
	"reflection_color": true,
	"box_blur":         true,
	"reflection":       true,
	"map_mixer":        true,
	"base_combine":     true,
	"bloom_extract":    true,
	"bloom_blur":       true,
	"bloom":            true,
	"sharpen":          true,
	"gamma":            true,
}

// Program returns the sources of the named program.
func Program(name string) (gpu.ProgramSource, error) {
	vert := "basic.vert"
	if fullscreen[name] {
		vert = "quad.vert"
	}
	v, err := files.ReadFile(vert)
	if err != nil {
		return gpu.ProgramSource{}, fmt.Errorf("read %s: %w", vert, err)
	}
	f, err := files.ReadFile(name + ".frag")
	if err != nil {
		return gpu.ProgramSource{}, fmt.Errorf("no fragment shader for %q: %w", name, err)
	}
	return gpu.ProgramSource{Name: name, Vertex: string(v), Fragment: string(f)}, nil
}

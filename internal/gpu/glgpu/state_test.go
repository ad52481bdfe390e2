package glgpu

import (
	"testing"

	"compositor/internal/gpu"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// These run without a GL context: they only map enums.

func TestTargetFormats(t *testing.T) {
	cases := []struct {
		opts     gpu.TargetOptions
		internal int32
		typ      uint32
	}{
		{gpu.TargetOptions{}, gl.RGBA32F, gl.FLOAT},
		{gpu.TargetOptions{Format: gpu.FormatRGB}, gl.RGB32F, gl.FLOAT},
		{gpu.TargetOptions{Type: gpu.TypeUnsignedByte}, gl.RGBA8, gl.UNSIGNED_BYTE},
		{gpu.TargetOptions{Format: gpu.FormatRGB, Type: gpu.TypeUnsignedByte}, gl.RGB8, gl.UNSIGNED_BYTE},
	}
	for _, c := range cases {
		internal, _, typ := glFormat(c.opts)
		if internal != c.internal || typ != c.typ {
			t.Fatalf("%+v: got 0x%x/0x%x, want 0x%x/0x%x", c.opts, internal, typ, c.internal, c.typ)
		}
	}
}

func TestBlendFactors(t *testing.T) {
	a := gpu.AlphaBlend()
	if glFactor(a.SrcRGB) != gl.SRC_ALPHA || glFactor(a.DstRGB) != gl.ONE_MINUS_SRC_ALPHA {
		t.Fatalf("alpha blend factors: got 0x%x/0x%x", glFactor(a.SrcRGB), glFactor(a.DstRGB))
	}
	if got := glFactor(gpu.Additive().DstRGB); got != gl.ONE {
		t.Fatalf("additive dst: got 0x%x, want ONE", got)
	}
	if got := glWrap(gpu.WrapMirror); got != gl.MIRRORED_REPEAT {
		t.Fatalf("mirror wrap: got 0x%x", got)
	}
}

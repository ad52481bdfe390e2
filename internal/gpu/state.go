package gpu

// DepthFunc is the depth comparison.
type DepthFunc int

const (
	DepthLessEqual DepthFunc = iota
	DepthLess
	DepthAlways
)

// DepthState configures depth testing for a draw.
type DepthState struct {
	Test  bool
	Write bool
	Func  DepthFunc
}

// DefaultDepth tests and writes with less-or-equal.
func DefaultDepth() DepthState {
	return DepthState{Test: true, Write: true, Func: DepthLessEqual}
}

// NoDepth disables depth testing and writing.
func NoDepth() DepthState {
	return DepthState{}
}

// BlendFactor is a blend source/destination factor.
type BlendFactor int

const (
	BlendZero BlendFactor = iota
	BlendOne
	BlendSrcAlpha
	BlendOneMinusSrcAlpha
	BlendDstAlpha
	BlendOneMinusDstAlpha
)

// BlendState configures blending. The equation is always add.
type BlendState struct {
	Enabled  bool
	SrcRGB   BlendFactor
	DstRGB   BlendFactor
	SrcAlpha BlendFactor
	DstAlpha BlendFactor
}

// NoBlend disables blending.
func NoBlend() BlendState {
	return BlendState{}
}

// AlphaBlend is classic src-alpha over.
func AlphaBlend() BlendState {
	return BlendState{
		Enabled:  true,
		SrcRGB:   BlendSrcAlpha,
		DstRGB:   BlendOneMinusSrcAlpha,
		SrcAlpha: BlendOne,
		DstAlpha: BlendOneMinusDstAlpha,
	}
}

// Additive sums source and destination.
func Additive() BlendState {
	return BlendState{
		Enabled:  true,
		SrcRGB:   BlendOne,
		DstRGB:   BlendOne,
		SrcAlpha: BlendOne,
		DstAlpha: BlendOne,
	}
}

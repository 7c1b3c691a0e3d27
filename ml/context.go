// context.go - Context und Tensor Interfaces fuer ML-Operationen
// Dieses Modul definiert die Schnittstellen fuer Tensor-Operationen und Compute-Kontexte.
//
// Konventionen:
//   - Tensoren haben bis zu 4 Dimensionen in NCHW-Reihenfolge, Dim(0) ist die
//     aeusserste (Batch-)Dimension, die letzte Dimension liegt dicht im Speicher.
//   - Alle Operationen sind funktional: sie erzeugen neue Tensoren und
//     veraendern ihre Operanden nicht.
package ml

// Context represents an execution context for tensor operations.
type Context interface {
	Empty(dtype DType, shape ...int) Tensor
	Zeros(dtype DType, shape ...int) Tensor
	FromFloats(s []float32, shape ...int) Tensor

	// Forward declares tensors as graph outputs. The CPU backend computes
	// eagerly, so this is a hook for graph-building backends.
	Forward(...Tensor) Context
	Compute(...Tensor)

	Close()
}

// Tensor represents a multi-dimensional array with various operations.
type Tensor interface {
	Dim(n int) int
	Shape() []int
	DType() DType

	// Floats returns the tensor contents as a flat float32 slice.
	Floats() []float32

	// Elementwise arithmetic. The second operand is broadcast against the
	// receiver: missing leading dimensions and dimensions of size 1 repeat.
	Add(ctx Context, t2 Tensor) Tensor
	Sub(ctx Context, t2 Tensor) Tensor
	Mul(ctx Context, t2 Tensor) Tensor
	Div(ctx Context, t2 Tensor) Tensor

	Scale(ctx Context, s float64) Tensor
	Clamp(ctx Context, min, max float32) Tensor

	Sigmoid(ctx Context) Tensor
	Tanh(ctx Context) Tensor
	LeakyReLU(ctx Context, negativeSlope float32) Tensor
	// PReLU applies a per-channel learned slope to negative values; weight
	// has one element per channel (dimension 1).
	PReLU(ctx Context, weight Tensor) Tensor
	// Softmax normalizes over the innermost dimension.
	Softmax(ctx Context) Tensor

	// Mulmat multiplies the two innermost dimensions, (..., m, k) x (..., k, n)
	// -> (..., m, n); leading dimensions are broadcast.
	Mulmat(ctx Context, t2 Tensor) Tensor

	Reshape(ctx Context, shape ...int) Tensor
	// Permute reorders dimensions; order holds one index per dimension.
	Permute(ctx Context, order ...int) Tensor
	Contiguous(ctx Context) Tensor
	Concat(ctx Context, t2 Tensor, dim int) Tensor
	Slice(ctx Context, dim, low, high, step int) Tensor

	// Conv2D applies weight (outC, inC, kH, kW) to the receiver (n, inC, h, w).
	// s0/s1 are the strides, p0/p1 the paddings, d0/d1 the dilations,
	// each along width and height respectively.
	Conv2D(ctx Context, weight Tensor, s0, s1, p0, p1, d0, d1 int) Tensor
	// ConvTranspose2D applies weight (inC, outC, kH, kW) as a fractionally
	// strided convolution.
	ConvTranspose2D(ctx Context, weight Tensor, s0, s1, p0, p1 int) Tensor

	// Interpolate resizes to dims (n, c, h, w); bilinear sampling uses
	// half-pixel centers without corner alignment.
	Interpolate(ctx Context, dims [4]int, samplingMode SamplingMode) Tensor

	// Splat forward-warps the receiver by flow (n, 2, h, w), scattering each
	// source pixel to its displaced position. metric optionally weights the
	// contributions and may be nil.
	Splat(ctx Context, flow, metric Tensor, mode SplatMode) Tensor

	// Correlate builds a local matching-cost volume between the receiver and
	// t2 with (2*radius+1)^2 channels, one per relative displacement. Each
	// channel holds the channel-mean inner product with the shifted t2.
	Correlate(ctx Context, t2 Tensor, radius int) Tensor
}

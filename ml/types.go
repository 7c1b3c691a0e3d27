// types.go - Datentypen und Konstanten fuer ML-Operationen
// Dieses Modul definiert grundlegende Typen wie DType, SamplingMode und SplatMode.
package ml

// DType represents the data type of tensor elements.
type DType int

const (
	DTypeOther DType = iota
	DTypeF32
	DTypeF16
)

// SamplingMode specifies the interpolation method for tensor resizing.
type SamplingMode int

const (
	SamplingModeNearest SamplingMode = iota
	SamplingModeBilinear
)

// SplatMode specifies how forward-warped contributions that land on the
// same destination pixel are combined.
type SplatMode int

const (
	// SplatModeAverage accumulates value and weight sums per destination
	// pixel and divides; pixels without contributions stay zero.
	SplatModeAverage SplatMode = iota
	// SplatModeSum accumulates raw contributions without normalization.
	SplatModeSum
)

// options.go - Konfiguration der Pyramiden-Interpolation
package rgbd

import "github.com/pyrflow/pyrflow/fs"

// Standardwerte der Architektur
const (
	defaultPyramidLevels = 3
	defaultSkippedLevels = 0

	// correlationRadius ist durch die Kanal-Arithmetik des
	// Motion-Estimators festgelegt: (2*4+1)^2 + 64*2 + 64 + 4 = 277
	correlationRadius = 4

	// blendEpsilon sichert den Blend-Nenner gegen Ausloeschung ab
	blendEpsilon = 1e-6
)

// Options steuert die Pyramiden-Iteration einer Inferenz
type Options struct {
	PyramidLevels int
	SkippedLevels int
}

// optionsFromConfig liest die Pyramiden-Parameter aus den Modell-Metadaten
func optionsFromConfig(c fs.Config) *Options {
	return &Options{
		PyramidLevels: int(c.Uint("pyramid_levels", defaultPyramidLevels)),
		SkippedLevels: int(c.Uint("levels_skipped", defaultSkippedLevels)),
	}
}

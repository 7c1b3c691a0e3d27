// types.go - Request- und Response-Typen der HTTP-API
package api

// InterpolateRequest beschreibt die Formular-Felder von /api/interpolate.
// img0/img1 (und optional depth0/depth1) werden als Multipart-Dateien
// uebertragen und sind hier nicht abgebildet.
type InterpolateRequest struct {
	// Time ist die Zielzeit in (0,1); Default 0.5
	Time float32 `form:"time"`

	// Levels ueberschreibt die Pyramiden-Tiefe des Modells
	Levels int `form:"levels"`

	// Skip ueberschreibt die Anzahl uebersprungener Stufen
	Skip int `form:"skip"`
}

// VersionResponse ist die Antwort von /api/version
type VersionResponse struct {
	Version string `json:"version"`
}

// ErrorResponse ist die JSON-Fehlerantwort aller Endpunkte
type ErrorResponse struct {
	Error string `json:"error"`
}

package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// recordRequest carries the form fields of a version-recording request. The
// edited raster itself travels as the multipart file part.
type recordRequest struct {
	Stem        string `json:"stem"`
	FromVersion int    `json:"from_version"`
	ToVersion   int    `json:"to_version"`
	Mode        string `json:"mode"` // "transform" (default) or "pixeldiff"
}

func (r recordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Stem, validation.Required, validation.Length(1, 128)),
		validation.Field(&r.FromVersion, validation.Min(0)),
		validation.Field(&r.ToVersion, validation.Required, validation.Min(1)),
		validation.Field(&r.Mode, validation.In("", "transform", "pixeldiff")),
	)
}

type recordResponse struct {
	MatrixPath           string `json:"matrix_path"`
	RGBMetricsPath       string `json:"rgb_metrics_path,omitempty"`
	IntensityMetricsPath string `json:"intensity_metrics_path,omitempty"`
}

type uploadResponse struct {
	Path string `json:"path"`
}

type listResponse struct {
	Images []string `json:"images"`
}

package v1

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string `json:"status" example:"healthy"`
}

// ReadinessResponse represents the readiness check response
type ReadinessResponse struct {
	Status string `json:"status" example:"ready"`
}

// VersionResponse represents the version information response
type VersionResponse struct {
	Version   string `json:"version" example:"v0.1.0"`
	Commit    string `json:"commit" example:"abc123def"`
	BuildDate string `json:"build_date" example:"2025-01-15T10:30:00Z"`
	GoVersion string `json:"go_version" example:"go1.25.2"`
	Platform  string `json:"platform" example:"linux/amd64"`
}

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse acknowledges an operation that was queued on the player loop
type StatusResponse struct {
	Status string `json:"status" example:"accepted"`
}

// PlayRequest starts the driver. Omitted fields use the configured defaults.
type PlayRequest struct {
	Interval string  `json:"interval,omitempty" example:"500ms"`
	Step     float64 `json:"step,omitempty" example:"0.2"`
}

// SeekRequest requests a round at Time
type SeekRequest struct {
	Time *float64 `json:"time"`
}

// SeekResponse reports an accepted seek
type SeekResponse struct {
	Accepted bool    `json:"accepted"`
	Time     float64 `json:"time"`
}

// RateRequest sets the playback rate
type RateRequest struct {
	Rate *float64 `json:"rate"`
}

// DurationRequest sets the logical duration
type DurationRequest struct {
	Duration *float64 `json:"duration"`
}

// AddResourceResponse reports the id of an added resource
type AddResourceResponse struct {
	ID string `json:"id"`
}

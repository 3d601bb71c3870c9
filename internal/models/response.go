package models

import "time"

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string    `json:"error" example:"Input file not found"`
	Message   string    `json:"message" example:"data/zip_code_data.csv does not exist"`
	Code      string    `json:"code,omitempty" example:"INPUT_NOT_FOUND"`
	Timestamp time.Time `json:"timestamp" example:"2024-01-15T10:30:00Z"`
	Path      string    `json:"path" example:"/api/v1/process"`
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string                 `json:"status" example:"healthy"`
	Timestamp time.Time              `json:"timestamp" example:"2024-01-15T10:30:00Z"`
	Version   string                 `json:"version" example:"1.0.0"`
	Services  map[string]ServiceInfo `json:"services"`
	Uptime    string                 `json:"uptime" example:"2h30m45s"`
}

// ServiceInfo represents individual service health information
type ServiceInfo struct {
	Status    string    `json:"status" example:"healthy"`
	Error     string    `json:"error,omitempty"`
	LastCheck time.Time `json:"last_check" example:"2024-01-15T10:30:00Z"`
}

// ProcessRequest is the optional body of a processing request. Without it the
// configured input file is read.
type ProcessRequest struct {
	CEPs []string `json:"ceps" example:"01310-100,00000-000"`
}

// Package api contains the HTTP API contract of wcabridge.
// Version v1 represents the current stable API version.
package api

import (
	"wcabridge/pkg/contracts/domain"
)

// Conversion API Requests

// ConversionRequest carries the multipart form fields of an upload to
// POST /api/v1/conversions. The file itself travels in the "file" part.
type ConversionRequest struct {
	FileName  string `form:"file" validate:"required,filename"`
	Dialect   string `form:"dialect" validate:"omitempty,dialect"`
	Transfer  string `form:"transfer" validate:"max=512"`
	ReviewCSV bool   `form:"review_csv"`
}

// Conversion API Responses

// ConversionResponse is returned when a conversion completes
type ConversionResponse struct {
	RunID      string            `json:"run_id"`
	Source     string            `json:"source"`
	Dialect    domain.Dialect    `json:"dialect"`
	Components int               `json:"components"`
	Warnings   []domain.Warning  `json:"warnings"`
	Summary    string            `json:"summary"`
	DurationMS int64             `json:"duration_ms"`
	Links      map[string]string `json:"links"`
}

// ConversionDetail adds the dataset contents to a ConversionResponse
type ConversionDetail struct {
	ConversionResponse
	PartsValue []domain.PartsValueRow    `json:"parts_value"`
	Deviations []domain.PackageDeviation `json:"parts_deviation"`
	Transfer   string                    `json:"transfer"`
}

// StoreStats reports the in-memory conversion store
type StoreStats struct {
	StoredConversions int     `json:"stored_conversions"`
	UptimeSeconds     float64 `json:"uptime_seconds"`
}

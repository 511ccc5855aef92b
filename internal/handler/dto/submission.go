// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import "github.com/claimflow/claimflow/internal/validation"

// StatusOK is the status reported for an accepted submission.
const StatusOK = "ok"

// MessageResponse is returned by the informational endpoints.
type MessageResponse struct {
	Message string `json:"message"`
}

// CreatedResponse is returned once a submission has been stored.
type CreatedResponse struct {
	Status string `json:"status"`
	ID     string `json:"id"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// ValidationErrorResponse lists every rejected field of a payload.
type ValidationErrorResponse struct {
	Detail validation.Errors `json:"detail"`
}

// DiagnosticsResponse describes backend and database reachability.
type DiagnosticsResponse struct {
	Backend          string   `json:"backend"`
	Database         string   `json:"database"`
	DatabaseURL      string   `json:"database_url"`
	DatabaseName     string   `json:"database_name"`
	ConnectionStatus string   `json:"connection_status"`
	Collections      []string `json:"collections"`
}

package models

import "github.com/capturelab/grabnode/internal/updater"

// UpdateStatusResponse reports the updater's current state.
type UpdateStatusResponse struct {
	Body updater.Status
}

// UpdateCheckResponse reports whether a newer release exists.
type UpdateCheckResponse struct {
	Body updater.UpdateInfo
}

// UpdateActionResponse acknowledges an apply or rollback request.
type UpdateActionResponse struct {
	Body struct {
		Message string `json:"message" doc:"Human-readable outcome"`
	}
}

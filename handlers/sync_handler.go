package handlers

import (
	"context"
	"net/http"

	"vehicleinventory/models"
)

// SyncService is the part of the reconciler the UI can see.
type SyncService interface {
	GetStatus() models.SyncStatus
	TriggerSync(ctx context.Context) (models.SyncStatus, error)
}

type SyncHandler struct {
	Sync SyncService
}

func (h *SyncHandler) Status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, ApiResponse{Success: true, Data: h.Sync.GetStatus()})
}

func (h *SyncHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	status, err := h.Sync.TriggerSync(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, ApiResponse{
			Success: false,
			Message: "Sync failed: " + err.Error(),
			Data:    status,
		})
		return
	}
	writeJSON(w, http.StatusOK, ApiResponse{Success: true, Data: status})
}

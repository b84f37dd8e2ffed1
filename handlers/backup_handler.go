package handlers

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"vehicleinventory/repository"
)

type Backupper interface {
	Backup(ctx context.Context) (string, error)
}

// BackupHandler answers 503 when no object storage is configured.
type BackupHandler struct {
	Repo Backupper
	Log  *zap.Logger
}

func (h *BackupHandler) Backup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if h.Repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, ApiResponse{
			Success: false,
			Message: "Backups are not configured",
		})
		return
	}

	url, err := h.Repo.Backup(r.Context())
	if err != nil {
		if errors.Is(err, repository.ErrBackupUnavailable) {
			writeJSON(w, http.StatusServiceUnavailable, ApiResponse{Success: false, Message: err.Error()})
			return
		}
		h.Log.Error("backup failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ApiResponse{
			Success: false,
			Message: "Backup failed: " + err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusCreated, ApiResponse{
		Success: true,
		Message: "Backup uploaded",
		Data:    map[string]string{"url": url},
	})
}

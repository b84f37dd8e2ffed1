package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"vehicleinventory/notify"
)

type NotifyHandler struct {
	Notifier notify.Notifier
}

type notifyRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (h *NotifyHandler) Notify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req notifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ApiResponse{
			Success: false,
			Message: "Invalid request payload: " + err.Error(),
		})
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeJSON(w, http.StatusBadRequest, ApiResponse{Success: false, Message: "Title is required"})
		return
	}

	h.Notifier.Notify(req.Title, req.Body)
	writeJSON(w, http.StatusAccepted, ApiResponse{Success: true, Message: "Notification sent"})
}

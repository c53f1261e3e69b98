package api

import (
	"net/http"

	"github.com/phrazzld/answers-api/internal/api/shared"
	"github.com/phrazzld/answers-api/internal/service"
)

// NotificationHandler serves the caller's notifications.
type NotificationHandler struct {
	notifications service.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notifications service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// ListNotifications handles GET /api/notifications.
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	list, err := h.notifications.ListNotifications(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list notifications")
		return
	}

	resp := make([]NotificationResponse, 0, len(list))
	for _, n := range list {
		resp = append(resp, notificationToResponse(n))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// MarkRead handles POST /api/notifications/{id}/read.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.notifications.MarkRead(r.Context(), userID, id); err != nil {
		HandleAPIError(w, r, err, "Failed to update notification")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

package greader

import (
	"net/http"

	"yana/internal/handler/http/respond"
	"yana/internal/usecase/stream"
)

// UnreadCountHandler serves GET /reader/api/0/unread-count.
type UnreadCountHandler struct{ Svc *stream.Service }

func (h UnreadCountHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	includeAll := r.URL.Query().Get("all") == "true"

	resp, err := h.Svc.UnreadCount(r.Context(), userID(r.Context()), includeAll)
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	respond.JSON(w, http.StatusOK, resp)
}

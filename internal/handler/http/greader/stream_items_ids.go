package greader

import (
	"net/http"
	"strconv"
	"time"

	"yana/internal/handler/http/respond"
	"yana/internal/usecase/stream"
)

// StreamItemIDsHandler serves GET /reader/api/0/stream/items/ids,
// accepting the s, n, ot, xt, it, r query parameters.
type StreamItemIDsHandler struct{ Svc *stream.Service }

func (h StreamItemIDsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	streamID := q.Get("s")
	if streamID == "" {
		respond.SafeError(w, http.StatusBadRequest, errMissingStreamID)
		return
	}

	req := stream.ItemIDsRequest{
		StreamID:     streamID,
		Limit:        parseIntParam(q.Get("n"), 0),
		OlderThan:    parseEpochSeconds(q.Get("ot")),
		ExcludeTag:   q.Get("xt"),
		IncludeTag:   q.Get("it"),
		ReverseOrder: q.Get("r") == "o",
	}

	resp, err := h.Svc.StreamItemIDs(r.Context(), userID(r.Context()), req)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	respond.JSON(w, http.StatusOK, resp)
}

func parseIntParam(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func parseEpochSeconds(s string) *time.Time {
	if s == "" {
		return nil
	}
	secs, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	t := time.Unix(secs, 0).UTC()
	return &t
}

package greader

import (
	"errors"
	"net/http"
	"net/url"

	"yana/internal/handler/http/respond"
	"yana/internal/usecase/stream"
)

var errMissingStreamID = errors.New("missing stream id (s)")

// StreamContentsHandler serves GET
// /reader/api/0/stream/contents/{streamId}. The
// stream id may arrive as the trailing path segment (the real GReader
// shape) or as the "s" query parameter; the path segment wins when both
// are present.
type StreamContentsHandler struct{ Svc *stream.Service }

func (h StreamContentsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	streamID := r.PathValue("streamId")
	if decoded, err := url.PathUnescape(streamID); err == nil {
		streamID = decoded
	}
	if streamID == "" {
		streamID = q.Get("s")
	}
	if streamID == "" {
		respond.SafeError(w, http.StatusBadRequest, errMissingStreamID)
		return
	}

	var itemIDs []int64
	for _, raw := range q["i"] {
		if id, ok := stream.ParseItemID(raw); ok {
			itemIDs = append(itemIDs, id)
		}
	}

	req := stream.ContentsRequest{
		StreamID:     streamID,
		ItemIDs:      itemIDs,
		ExcludeTag:   q.Get("xt"),
		IncludeTag:   q.Get("it"),
		Limit:        parseIntParam(q.Get("n"), 0),
		OlderThan:    parseEpochSeconds(q.Get("ot")),
		Continuation: q.Get("c"),
	}

	resp, err := h.Svc.StreamContents(r.Context(), userID(r.Context()), req)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	respond.JSON(w, http.StatusOK, resp)
}

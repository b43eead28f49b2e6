package api

import (
	"net/http"
	"strconv"

	"github.com/CeoatNorthstar/openCern/internal/adapters/output"
	"github.com/cockroachdb/errors"
)

// EventsHandler pages through the events of the loaded document.
type EventsHandler struct {
	doc      *output.Document
	maxLimit int
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(doc *output.Document, maxLimit int) *EventsHandler {
	return &EventsHandler{doc: doc, maxLimit: maxLimit}
}

// eventsPage is the response of GET /events.
type eventsPage struct {
	Offset int            `json:"offset"`
	Limit  int            `json:"limit"`
	Total  int            `json:"total"`
	Events []output.Event `json:"events"`
}

// HandleGetEvents handles GET /events?offset=N&limit=M requests.
func (h *EventsHandler) HandleGetEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	offset, err := intParam(q.Get("offset"), 0)
	if err != nil || offset < 0 {
		writeError(w, http.StatusBadRequest, "bad_request", errors.Mark(errors.New("offset must be a non-negative integer"), ErrBadRequest))
		return
	}
	limit, err := intParam(q.Get("limit"), defaultPageLimit)
	if err != nil || limit < 1 {
		writeError(w, http.StatusBadRequest, "bad_request", errors.Mark(errors.New("limit must be a positive integer"), ErrBadRequest))
		return
	}
	if limit > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", errors.Mark(errors.Newf("limit must not exceed %d", h.maxLimit), ErrLimitExceeded))
		return
	}

	total := len(h.doc.Events)
	lo := min(offset, total)
	hi := min(lo+limit, total)
	page := h.doc.Events[lo:hi]
	if page == nil {
		page = []output.Event{}
	}
	writeJSON(w, http.StatusOK, eventsPage{
		Offset: offset,
		Limit:  limit,
		Total:  total,
		Events: page,
	})
}

// intParam parses a query value, returning def when it is empty.
func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

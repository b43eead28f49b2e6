package api

import (
	"net/http"

	"github.com/CeoatNorthstar/openCern/internal/adapters/output"
)

// MetadataHandler serves the run metadata of the loaded document.
type MetadataHandler struct {
	doc *output.Document
}

// NewMetadataHandler creates a new metadata handler.
func NewMetadataHandler(doc *output.Document) *MetadataHandler {
	return &MetadataHandler{doc: doc}
}

// HandleMetadata handles GET /metadata requests.
func (h *MetadataHandler) HandleMetadata(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.doc.Metadata)
}

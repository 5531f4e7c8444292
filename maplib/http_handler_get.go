package maplib

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h httpHandler) handleGetLookup(w http.ResponseWriter, req *http.Request) {
	resolved, err := h.mapper.Lookup(req.Context(), chi.URLParam(req, "ip"))
	if err != nil {
		h.sendError(w, err, "Cannot resolve IP address", http.StatusInternalServerError)

		return
	}

	switch resolved.Failure {
	case FailureNotFound:
		h.sendError(w, nil, "IP not found or invalid location data", http.StatusNotFound)

		return
	case FailureLookupError:
		h.sendError(w, nil, "Cannot resolve IP address", http.StatusInternalServerError)

		return
	}

	response := struct {
		Result Outcome `json:"result"`
	}{
		Result: resolved,
	}

	h.encodeJSON(w, http.StatusOK, response)
}

func (h httpHandler) handleGetStats(w http.ResponseWriter, req *http.Request) {
	response := struct {
		Results []*UsageStats `json:"results"`
	}{
		Results: h.mapper.UsageStats(),
	}

	h.encodeJSON(w, http.StatusOK, response)
}

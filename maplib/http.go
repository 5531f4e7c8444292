package maplib

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type httpHandler struct {
	mapper *Mapper
}

func (h httpHandler) encodeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	encoder := json.NewEncoder(w)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	encoder.SetEscapeHTML(false)
	encoder.Encode(data) // nolint: errcheck
}

func (h httpHandler) sendError(w http.ResponseWriter, err error, message string, statusCode int) {
	e := &httpError{
		message:    message,
		statusCode: statusCode,
		err:        err,
	}

	h.encodeJSON(w, e.StatusCode(), e)
}

// sendBatchError maps errors of LookupBatch to HTTP responses.
func (h httpHandler) sendBatchError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrInvalidBatch) {
		h.sendError(w, err, "Batch is too large", http.StatusBadRequest)

		return
	}

	h.sendError(w, err, "Cannot resolve given IPs", http.StatusInternalServerError)
}

func (h httpHandler) notFound(w http.ResponseWriter, req *http.Request) {
	h.sendError(w, nil, "Unknown path", http.StatusNotFound)
}

func (h httpHandler) methodNotAllowed(w http.ResponseWriter, req *http.Request) {
	h.sendError(w, nil, "This HTTP method is not allowed", http.StatusMethodNotAllowed)
}

func newHTTPHandler(mapper *Mapper) http.Handler {
	handler := httpHandler{
		mapper: mapper,
	}
	router := chi.NewRouter()

	router.Use(middleware.Recoverer)
	router.Use(middleware.StripSlashes)

	router.NotFound(handler.notFound)
	router.MethodNotAllowed(handler.methodNotAllowed)

	router.Route("/api", func(r chi.Router) {
		r.Get("/stats", handler.handleGetStats)
		r.Post("/lookup/bulk", handler.handlePostBulk)
		r.Post("/lookup/csv", handler.handlePostCSV)
		r.Get("/lookup/{ip}", handler.handleGetLookup)
	})

	return router
}

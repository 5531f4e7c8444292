package maplib

import (
	"net/http"
	"strings"
)

const (
	csvUploadSizeLimit = 1 << 20
	csvUploadFormField = "file"
	csvExportFileName  = "results.csv"
)

func (h httpHandler) handlePostCSV(w http.ResponseWriter, req *http.Request) {
	req.Body = http.MaxBytesReader(w, req.Body, csvUploadSizeLimit)

	file, _, err := req.FormFile(csvUploadFormField)
	if err != nil {
		h.sendError(w, err, "Cannot read uploaded file", http.StatusBadRequest)

		return
	}

	defer file.Close()

	keys, err := ReadCSVKeys(file)
	if err != nil {
		h.sendError(w, err, "Cannot parse uploaded CSV", http.StatusBadRequest)

		return
	}

	resolved, err := h.mapper.LookupBatch(req.Context(), keys)
	if err != nil {
		h.sendBatchError(w, err)

		return
	}

	if !h.wantsCSV(req) {
		h.encodeJSON(w, http.StatusOK, handlePostResponse{Results: resolved})

		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+csvExportFileName+`"`)
	w.WriteHeader(http.StatusOK)
	WriteCSVOutcomes(w, resolved) // nolint: errcheck
}

func (h httpHandler) wantsCSV(req *http.Request) bool {
	if strings.EqualFold(req.URL.Query().Get("format"), "csv") {
		return true
	}

	return strings.Contains(req.Header.Get("Accept"), "text/csv")
}

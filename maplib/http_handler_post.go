package maplib

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/qri-io/jsonschema"
)

var handlePostBulkRequestJSONSchema = func() *jsonschema.Schema {
	data := `{
        "type": "object",
        "additionalProperties": false,
        "oneOf": [
            {"required": ["ips"]},
            {"required": ["keys"]}
        ],
        "properties": {
            "ips": {
                "type": "array",
                "items": {
                    "type": "string"
                }
            },
            "keys": {
                "type": "array",
                "items": {
                    "type": "string"
                }
            }
        }
    }`

	rv := &jsonschema.Schema{}
	if err := json.Unmarshal([]byte(data), rv); err != nil {
		panic(err)
	}

	return rv
}()

type handlePostBulkRequest struct {
	IPs  []string `json:"ips"`
	Keys []string `json:"keys"`
}

func (h handlePostBulkRequest) GetKeys() []string {
	if h.IPs != nil {
		return h.IPs
	}

	return h.Keys
}

type handlePostResponse struct {
	Results []Outcome `json:"results"`
}

func (h httpHandler) handlePostBulk(w http.ResponseWriter, req *http.Request) {
	if !strings.Contains(req.Header.Get("Content-Type"), "application/json") {
		h.sendError(w, nil, "Incorrect content type", http.StatusUnsupportedMediaType)

		return
	}

	bodyBytes, err := io.ReadAll(req.Body)

	req.Body.Close()

	if err != nil {
		h.sendError(w, err, "Cannot read request body", http.StatusBadRequest)

		return
	}

	errs, err := handlePostBulkRequestJSONSchema.ValidateBytes(req.Context(), bodyBytes)
	if err != nil {
		h.sendError(w, err, "Cannot validate body", http.StatusBadRequest)

		return
	}

	if len(errs) > 0 {
		h.sendError(w, errs[0], "Invalid request body", http.StatusBadRequest)

		return
	}

	parsedRequest := handlePostBulkRequest{}
	if err := json.Unmarshal(bodyBytes, &parsedRequest); err != nil {
		h.sendError(w, err, "Cannot parse request JSON", http.StatusBadRequest)

		return
	}

	resolved, err := h.mapper.LookupBatch(req.Context(), parsedRequest.GetKeys())
	if err != nil {
		h.sendBatchError(w, err)

		return
	}

	h.encodeJSON(w, http.StatusOK, handlePostResponse{Results: resolved})
}

package server

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"
)

// GraphQLRequest is one operation of a GET query string or POST body.
type GraphQLRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
	Extensions    map[string]any `json:"extensions,omitempty"`
}

// requestError rejects a request before any operation runs.
type requestError struct {
	status  int
	message string
}

func badRequest(message string) *requestError {
	return &requestError{status: http.StatusBadRequest, message: message}
}

// decodeRequests reads the operations of r. batched is true when a POST body
// holds a JSON array; its results are written back as an array.
func decodeRequests(w http.ResponseWriter, r *http.Request, limit int64) (reqs []GraphQLRequest, batched bool, rerr *requestError) {
	switch r.Method {
	case http.MethodGet:
		req, err := fromQueryString(r.URL.Query())
		if err != nil {
			return nil, false, err
		}
		return []GraphQLRequest{req}, false, nil
	case http.MethodPost:
		return fromBody(w, r, limit)
	}
	return nil, false, &requestError{status: http.StatusMethodNotAllowed, message: "method not allowed"}
}

func fromQueryString(q url.Values) (GraphQLRequest, *requestError) {
	req := GraphQLRequest{Query: q.Get("query"), OperationName: q.Get("operationName")}
	if req.Query == "" {
		return req, badRequest("missing 'query'")
	}
	if raw := q.Get("variables"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Variables); err != nil {
			return req, badRequest("invalid 'variables' JSON")
		}
	}
	return req, nil
}

func fromBody(w http.ResponseWriter, r *http.Request, limit int64) ([]GraphQLRequest, bool, *requestError) {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || mediaType != "application/json" {
			return nil, false, &requestError{status: http.StatusUnsupportedMediaType, message: "unsupported Content-Type"}
		}
	}
	body := r.Body
	if limit > 0 {
		body = http.MaxBytesReader(w, body, limit)
	}
	defer body.Close()
	raw, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, false, &requestError{status: http.StatusRequestEntityTooLarge, message: "body too large"}
		}
		return nil, false, badRequest("failed to read body")
	}

	raw = bytes.TrimSpace(raw)
	batched := len(raw) > 0 && raw[0] == '['
	var reqs []GraphQLRequest
	if batched {
		err = json.Unmarshal(raw, &reqs)
	} else {
		reqs = make([]GraphQLRequest, 1)
		err = json.Unmarshal(raw, &reqs[0])
	}
	if err != nil {
		return nil, false, badRequest("invalid JSON")
	}
	if len(reqs) == 0 {
		return nil, false, badRequest("empty batch")
	}
	for _, req := range reqs {
		if req.Query == "" {
			return nil, false, badRequest("missing 'query'")
		}
	}
	return reqs, batched, nil
}

// acceptsHTML reports whether a browser is asking for a page.
func acceptsHTML(accept string) bool {
	for _, part := range strings.Split(accept, ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err == nil && (mediaType == "text/html" || mediaType == "*/*") {
			return true
		}
	}
	return false
}

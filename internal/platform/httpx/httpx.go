// Package httpx holds small JSON and form helpers shared by the HTTP handlers.
package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
)

// MaxBodyBytes caps request bodies read by ReadFields.
const MaxBodyBytes = 1 << 20

// WriteJSON writes v as JSON with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes {"error": message}.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

// WantsJSON reports whether the client posted or asked for JSON.
func WantsJSON(r *http.Request) bool {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// Fields is a flat set of submitted string values.
type Fields map[string]string

// Get returns the first non-empty value among names, or "".
func (f Fields) Get(names ...string) string {
	for _, n := range names {
		if v := f[n]; v != "" {
			return v
		}
	}
	return ""
}

// ReadFields reads a JSON object or a urlencoded/multipart form body into Fields.
// JSON strings and numbers are kept; other JSON types are treated as absent. An empty
// body yields empty Fields.
func ReadFields(w http.ResponseWriter, r *http.Request) (Fields, error) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch ct {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		return readForm(r, ct)
	default:
		return readJSON(r)
	}
}

func readForm(r *http.Request, ct string) (Fields, error) {
	var err error
	if ct == "multipart/form-data" {
		err = r.ParseMultipartForm(MaxBodyBytes)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		return nil, fmt.Errorf("httpx: parse form: %w", err)
	}
	out := make(Fields, len(r.PostForm))
	for k, v := range r.PostForm {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out, nil
}

func readJSON(r *http.Request) (Fields, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("httpx: read body: %w", err)
	}
	out := Fields{}
	if len(bytes.TrimSpace(body)) == 0 {
		return out, nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("httpx: decode json: %w", err)
	}
	if raw == nil {
		return nil, errors.New("httpx: json body must be an object")
	}
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			out[k] = val
		case json.Number:
			out[k] = val.String()
		}
	}
	return out, nil
}

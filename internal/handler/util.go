package handler

import (
	"encoding/json"
	"errors"
	"net/http"
)

const maxBodyBytes = 16 * 1024 * 1024

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

// writeOK writes {"success": true} merged with the fields of v, which must
// encode as a JSON object.
func writeOK(w http.ResponseWriter, v interface{}) {
	writeJSON(w, http.StatusOK, success{data: v})
}

type success struct {
	data interface{}
}

func (s success) MarshalJSON() ([]byte, error) {
	fields := map[string]json.RawMessage{}
	if s.data != nil {
		raw, err := json.Marshal(s.data)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, err
		}
	}
	fields["success"] = json.RawMessage("true")
	return json.Marshal(fields)
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errors.New("request body too large")
		}
		return errors.New("invalid request body")
	}
	return nil
}

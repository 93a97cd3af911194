package services

import "encoding/json"

// renderJSON formats a caller-supplied value for an error message.
func renderJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

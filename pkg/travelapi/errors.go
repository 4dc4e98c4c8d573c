package travelapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// APIError is a non-2xx answer from the travel API. Message is safe to show to users.
type APIError struct {
	StatusCode  int
	Message     string
	FieldErrors map[string]string
	Body        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("travel api error: status=%d message=%s", e.StatusCode, e.Message)
}

// UserMessage returns the first human readable message carried by err, or fallback.
func UserMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if errors.Is(err, ErrSessionExpired) {
		return "Your session has expired. Please log in again."
	}
	return fallback
}

// decodeError understands the error bodies the API produces:
//
//	{"error": "...", "errors": {"field": ["..."]}}
//	{"detail": "..."}
//	{"field": ["..."], "non_field_errors": ["..."]}
func decodeError(status int, body []byte) *APIError {
	e := &APIError{StatusCode: status, Body: string(body)}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		e.Message = fmt.Sprintf("Request failed with status code %d", status)
		return e
	}

	for _, k := range []string{"error", "detail", "message"} {
		if s := firstString(raw[k]); s != "" {
			e.Message = s
			break
		}
	}

	fields := raw
	if nested, ok := raw["errors"]; ok {
		var m map[string]json.RawMessage
		if json.Unmarshal(nested, &m) == nil {
			fields = m
		}
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		switch k {
		case "error", "detail", "message", "success", "errors":
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if s := firstString(fields[k]); s != "" {
			if e.FieldErrors == nil {
				e.FieldErrors = map[string]string{}
			}
			e.FieldErrors[k] = s
		}
	}

	if e.Message == "" && len(keys) > 0 {
		if s, ok := e.FieldErrors["non_field_errors"]; ok {
			e.Message = s
		} else if len(e.FieldErrors) > 0 {
			k := keys[0]
			e.Message = fmt.Sprintf("%s: %s", strings.ReplaceAll(k, "_", " "), e.FieldErrors[k])
		}
	}
	if e.Message == "" {
		e.Message = fmt.Sprintf("Request failed with status code %d", status)
	}
	return e
}

// firstString flattens a string, a list of strings or a nested list into its first string.
func firstString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var list []json.RawMessage
	if json.Unmarshal(raw, &list) == nil {
		for _, item := range list {
			if s := firstString(item); s != "" {
				return s
			}
		}
	}
	return ""
}

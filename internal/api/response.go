// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

// Package api implements the Request-side interface (C11): a small
// chi-routed HTTP server exposing the orchestrated search, YouTube
// link, and chart-stats operations over spec.md §6.3's eight
// endpoints. Grounded on the teacher's internal/api package (response
// envelope, respondJSON/respondError, chi router setup), trimmed from
// its 100+ endpoint, multi-tenant, auth-gated surface down to the
// single-user surface melodex actually has — see DESIGN.md for what
// was dropped and why.
package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/melodex/core/internal/logging"
	"github.com/melodex/core/internal/validation"
)

// APIResponse is melodex's standardized envelope for every handler in
// this package. melodex has no shared internal/models package (unlike
// the teacher), so this type lives here instead; internal/validation's
// APIError already anticipates pairing with exactly this shape.
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries per-response observability fields.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
}

// APIError is the error half of the envelope.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// sanitizeLogValue strips control characters from a string before it
// reaches a log line, so a hostile query parameter cannot forge or
// split log entries.
func sanitizeLogValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			b.WriteString("\\x")
			b.WriteString(strconv.FormatInt(int64(r), 16))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// respondJSON writes a response envelope with the standard headers.
func respondJSON(w http.ResponseWriter, status int, resp *APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")

	data, err := json.Marshal(resp)
	if err != nil {
		logging.Error().Err(err).Msg("failed to marshal API response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("failed to write API response")
	}
}

// respondSuccess writes a status:success envelope around data,
// optionally noting cache provenance and elapsed query time.
func respondSuccess(w http.ResponseWriter, data interface{}, cached bool, elapsed time.Duration) {
	respondJSON(w, http.StatusOK, &APIResponse{
		Status: "success",
		Data:   data,
		Metadata: Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: elapsed.Milliseconds(),
			Cached:      cached,
		},
	})
}

// respondError writes a status:error envelope. A non-nil err is logged
// (sanitized) but never surfaced in the response body, per spec.md
// §7's "user-visible errors never include provider payloads".
func respondError(w http.ResponseWriter, status int, code, message string, err error) {
	if err != nil {
		logging.Error().Str("code", sanitizeLogValue(code)).Str("error", sanitizeLogValue(err.Error())).Msg("api error")
	}
	respondJSON(w, status, &APIResponse{
		Status: "error",
		Metadata: Metadata{
			Timestamp: time.Now(),
		},
		Error: &APIError{Code: code, Message: message},
	})
}

// validateRequest runs internal/validation over v and adapts its
// result into this package's local APIError shape.
func validateRequest(v interface{}) *APIError {
	verr := validation.ValidateStruct(v)
	if verr == nil {
		return nil
	}
	apiErr := verr.ToAPIError()
	return &APIError{Code: apiErr.Code, Message: apiErr.Message, Details: apiErr.Details}
}

// getIntParam extracts an integer query parameter, falling back to
// defaultValue when absent or unparseable.
func getIntParam(r *http.Request, key string, defaultValue int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	return n
}

// parseCommaSeparated splits a comma-separated query value into its
// trimmed, non-empty parts.
func parseCommaSeparated(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

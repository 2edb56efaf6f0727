// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package api

import (
	"net/http"

	"github.com/goccy/go-json"
)

// decodeJSONBody decodes the request body into dst, writing a 400
// envelope and returning false on failure (including an empty body).
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if r.Body == nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "request body is required", nil)
		return false
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "malformed JSON body", err)
		return false
	}
	return true
}

// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package utils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/fluxprotocol/oracle/builtin/reverts"
)

func TestWrapHandlerFunc(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"ok", nil, http.StatusOK, ""},
		{"validation", reverts.NewValidation("bad outcome"), http.StatusBadRequest, "bad outcome\n"},
		{"authorization", errors.Wrap(reverts.NewAuthorization("ERR_INVALID_CALLER"), "stake"), http.StatusForbidden, "stake: ERR_INVALID_CALLER\n"},
		{"state", reverts.NewState("ERR_DATA_REQUEST_NOT_FOUND"), http.StatusConflict, "ERR_DATA_REQUEST_NOT_FOUND\n"},
		{"arithmetic", reverts.NewArithmetic("overflow"), http.StatusBadRequest, "overflow\n"},
		{"not found", NotFound(errors.New("request")), http.StatusNotFound, "request\n"},
		{"bare status", HTTPError(nil, http.StatusTeapot), http.StatusTeapot, ""},
		{"internal", errors.New("disk"), http.StatusInternalServerError, "disk\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WrapHandlerFunc(func(http.ResponseWriter, *http.Request) error { return tt.err })(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.body, rec.Body.String())
		})
	}
}

func TestParseJSONIsStrict(t *testing.T) {
	var v struct {
		A int `json:"a"`
	}
	assert.NoError(t, ParseJSON(strings.NewReader(`{"a":1}`), &v))
	assert.Equal(t, 1, v.A)
	assert.Error(t, ParseJSON(strings.NewReader(`{"b":1}`), &v))
}

func TestParseUint(t *testing.T) {
	v, err := ParseUint("", 7)
	assert.NoError(t, err)
	assert.Equal(t, uint64(7), v)

	v, err = ParseUint("12", 7)
	assert.NoError(t, err)
	assert.Equal(t, uint64(12), v)

	_, err = ParseUint("-1", 7)
	assert.Error(t, err)
}

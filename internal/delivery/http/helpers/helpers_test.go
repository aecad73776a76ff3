package helpers

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupBody struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"omitempty,oneof=guest host"`
}

type extraChecked struct {
	Value string `json:"value"`
}

func (e extraChecked) Validate() []string {
	if e.Value != "ok" {
		return []string{"value must be ok"}
	}
	return nil
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) APIError {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.NotNil(t, resp.Error)
	return *resp.Error
}

func TestDecodeAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		dest        any
		wantOK      bool
		wantMessage string
	}{
		{name: "valid", body: `{"name":"A","email":"a@example.com"}`, dest: &signupBody{}, wantOK: true},
		{name: "unknown field", body: `{"name":"A","email":"a@example.com","x":1}`, dest: &signupBody{}, wantMessage: "invalid request body"},
		{name: "malformed json", body: `{`, dest: &signupBody{}, wantMessage: "invalid request body"},
		{name: "required uses json names", body: `{"email":"a@example.com"}`, dest: &signupBody{}, wantMessage: "name is required"},
		{name: "email tag", body: `{"name":"A","email":"nope"}`, dest: &signupBody{}, wantMessage: "email must be a valid email"},
		{name: "oneof tag", body: `{"name":"A","email":"a@example.com","role":"x"}`, dest: &signupBody{}, wantMessage: "role must be one of guest host"},
		{name: "custom validator", body: `{"value":"no"}`, dest: &extraChecked{}, wantMessage: "value must be ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			ok := DecodeAndValidate(rr, req, tt.dest)
			require.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				return
			}
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			apiErr := decodeError(t, rr)
			assert.Equal(t, ErrCodeBadRequest, apiErr.Code)
			assert.Equal(t, tt.wantMessage, apiErr.Message)
		})
	}
}

func TestPathID(t *testing.T) {
	tests := []struct {
		value  string
		wantID int64
		wantOK bool
	}{
		{"12", 12, true},
		{"0", 0, false},
		{"-3", 0, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.SetPathValue("id", tt.value)
			id, ok := PathID(req, "id")
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestClientIP(t *testing.T) {
	proxies, err := ParseTrustedProxies([]string{"10.0.0.0/8", "192.0.2.1"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		remote  string
		xff     string
		realIP  string
		trusted []*net.IPNet
		want    string
	}{
		{name: "no headers", remote: "10.0.0.1:5555", trusted: proxies, want: "10.0.0.1"},
		{name: "untrusted peer cannot spoof forwarded for", remote: "203.0.113.9:5555", xff: "198.51.100.1", trusted: proxies, want: "203.0.113.9"},
		{name: "untrusted peer cannot spoof real ip", remote: "203.0.113.9:5555", realIP: "198.51.100.2", trusted: proxies, want: "203.0.113.9"},
		{name: "headers ignored without trusted proxies", remote: "10.0.0.1:5555", xff: "198.51.100.1", realIP: "198.51.100.2", want: "10.0.0.1"},
		{name: "trusted proxy forwards client", remote: "10.0.0.1:5555", xff: "203.0.113.7", trusted: proxies, want: "203.0.113.7"},
		{name: "client prefix before last untrusted hop is ignored", remote: "10.0.0.1:5555", xff: "1.2.3.4, 203.0.113.7, 10.0.0.2", trusted: proxies, want: "203.0.113.7"},
		{name: "single host proxy", remote: "192.0.2.1:80", xff: "203.0.113.8", trusted: proxies, want: "203.0.113.8"},
		{name: "real ip fallback from trusted proxy", remote: "10.0.0.1:5555", realIP: "198.51.100.2", trusted: proxies, want: "198.51.100.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			assert.Equal(t, tt.want, ClientIP(req, tt.trusted))
		})
	}
}

func TestParseTrustedProxies(t *testing.T) {
	nets, err := ParseTrustedProxies([]string{" 10.0.0.0/8 ", "::1"})
	require.NoError(t, err)
	require.Len(t, nets, 2)
	assert.True(t, nets[1].Contains(net.ParseIP("::1")))

	_, err = ParseTrustedProxies([]string{"not-an-ip"})
	assert.Error(t, err)
	_, err = ParseTrustedProxies([]string{"10.0.0.0/99"})
	assert.Error(t, err)
}

func TestPagination(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?page=3&page_size=500", nil)
	p := ParsePagination(req)
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, MaxPageSize, p.PageSize)

	meta := NewPaginationMeta(2, 20, 41)
	assert.Equal(t, 3, meta.TotalPages)
}

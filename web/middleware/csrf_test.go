package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/adamwoolhether/tablero/web/middleware"
)

func TestCSRF(t *testing.T) {
	csrf, err := middleware.CSRF(discard, "https://tablero.example.com", "https://preview-*.example.dev")
	if err != nil {
		t.Fatalf("building csrf: %v", err)
	}
	handler := csrf(okHandler)

	testCases := map[string]struct {
		method  string
		headers map[string]string
		code    int
	}{
		"safeMethod": {
			method:  http.MethodGet,
			headers: map[string]string{"Sec-Fetch-Site": "cross-site"},
			code:    http.StatusOK,
		},
		"serverToServer": {
			method: http.MethodPatch,
			code:   http.StatusOK,
		},
		"sameOrigin": {
			method:  http.MethodPost,
			headers: map[string]string{"Sec-Fetch-Site": "same-origin"},
			code:    http.StatusOK,
		},
		"crossSite": {
			method:  http.MethodDelete,
			headers: map[string]string{"Sec-Fetch-Site": "cross-site", "Origin": "https://evil.com"},
			code:    http.StatusForbidden,
		},
		"trustedOrigin": {
			method:  http.MethodPatch,
			headers: map[string]string{"Sec-Fetch-Site": "cross-site", "Origin": "https://tablero.example.com"},
			code:    http.StatusOK,
		},
		"wildcardOrigin": {
			method:  http.MethodPost,
			headers: map[string]string{"Sec-Fetch-Site": "cross-site", "Origin": "https://preview-7.example.dev"},
			code:    http.StatusOK,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(tc.method, "/api/airtable/tasks/recT1", nil)
			for k, v := range tc.headers {
				r.Header.Set(k, v)
			}

			if err := handler(r.Context(), w, r); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if w.Code != tc.code {
				t.Fatalf("status = %d, want %d", w.Code, tc.code)
			}
		})
	}
}

func TestCSRF_BadTrustedOrigin(t *testing.T) {
	if _, err := middleware.CSRF(discard, "not a url"); err == nil {
		t.Fatal("expected error for malformed trusted origin")
	}
}

package httpapi

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNormalizeBasePath(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"/", ""},
		{"uqlabs", "/uqlabs"},
		{"/uqlabs", "/uqlabs"},
		{"/uqlabs/", "/uqlabs"},
		{" //", ""},
	}
	for _, tc := range cases {
		if got := normalizeBasePath(tc.in); got != tc.want {
			t.Fatalf("normalizeBasePath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMountBasePath(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, r.URL.Path)
	})
	handler := mountBasePath("/uqlabs", inner)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/uqlabs/api/notebook", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "/api/notebook" {
		t.Fatalf("expected stripped path, got %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/uqlabs?id=nb1", nil))
	if rec.Code != http.StatusTemporaryRedirect || rec.Header().Get("Location") != "/uqlabs/?id=nb1" {
		t.Fatalf("expected redirect keeping query, got %d %q", rec.Code, rec.Header().Get("Location"))
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/other/api/notebook", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 outside prefix, got %d", rec.Code)
	}

	if mountBasePath("", inner) == nil {
		t.Fatalf("expected handler for empty prefix")
	}
}

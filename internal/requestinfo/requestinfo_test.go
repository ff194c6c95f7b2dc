package requestinfo

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
)

func TestClientIP(t *testing.T) {
	cases := []struct {
		name   string
		header map[string]string
		remote string
		want   string
	}{
		{"forwarded", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "10.0.0.2:5000", "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-Ip": "198.51.100.4"}, "10.0.0.2:5000", "198.51.100.4"},
		{"remote", nil, "192.0.2.9:4321", "192.0.2.9"},
		{"garbage forwarded", map[string]string{"X-Forwarded-For": "unknown"}, "192.0.2.9:4321", "192.0.2.9"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tc.remote
			for k, v := range tc.header {
				r.Header.Set(k, v)
			}
			if got := clientIP(r).String(); got != tc.want {
				t.Fatalf("clientIP = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestEnrichStoresInfo(t *testing.T) {
	var got *Info
	h := Enrich(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/api/catalogo", nil)
	r.RemoteAddr = "192.0.2.1:1234"
	r.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36")
	h.ServeHTTP(httptest.NewRecorder(), r)

	if got == nil {
		t.Fatal("Info not stored in context")
	}
	if got.IP.String() != "192.0.2.1" || got.UA.Browser != "Chrome" || got.Country != "" {
		t.Fatalf("unexpected info: %+v", got)
	}
	if FromContext(r.Context()) != nil {
		t.Fatal("original request context must stay untouched")
	}
}

func TestInitGeoMissingFile(t *testing.T) {
	if err := InitGeo(filepath.Join(t.TempDir(), "missing.mmdb")); err == nil {
		t.Fatal("expected error for missing database")
	}
}

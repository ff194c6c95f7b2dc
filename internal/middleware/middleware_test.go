package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/yanizio/animecatalog/internal/metrics"
	"github.com/yanizio/animecatalog/internal/requestinfo"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	Security(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	for _, kv := range securityHeaders {
		if got := rec.Header().Get(kv[0]); got != kv[1] {
			t.Errorf("%s = %q, want %q", kv[0], got, kv[1])
		}
	}
}

func TestSecurityHeadersOverridable(t *testing.T) {
	h := Security(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-Frame-Options", "SAMEORIGIN")
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if got := rec.Header().Get("X-Frame-Options"); got != "SAMEORIGIN" {
		t.Fatalf("handler override lost: %q", got)
	}
}

func TestForceHTTPS(t *testing.T) {
	cases := []struct {
		name    string
		enabled bool
		host    string
		tls     bool
		proto   string
		status  int
	}{
		{"disabled", false, "anime.example", false, "", http.StatusOK},
		{"plain http", true, "anime.example", false, "", http.StatusPermanentRedirect},
		{"tls", true, "anime.example", true, "", http.StatusOK},
		{"proxy https", true, "anime.example", false, "https", http.StatusOK},
		{"localhost", true, "localhost:8080", false, "", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/catalogo?q=x", nil)
			r.Host = tc.host
			if tc.tls {
				r.TLS = &tls.ConnectionState{}
			}
			if tc.proto != "" {
				r.Header.Set("X-Forwarded-Proto", tc.proto)
			}
			rec := httptest.NewRecorder()
			ForceHTTPS(tc.enabled)(ok).ServeHTTP(rec, r)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
			if tc.status == http.StatusPermanentRedirect {
				if loc := rec.Header().Get("Location"); loc != "https://anime.example/api/catalogo?q=x" {
					t.Fatalf("Location = %q", loc)
				}
			}
		})
	}
}

func TestAccessLog(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	before := testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues("POST", "503"))

	h := requestinfo.Enrich(AccessLog(zap.New(core))(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("schema incomplete"))
		})))

	r := httptest.NewRequest(http.MethodPost, "/api/temporadas/1/episodios", nil)
	r.RemoteAddr = "192.0.2.5:9999"
	h.ServeHTTP(httptest.NewRecorder(), r)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("want 1 log entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Level != zapcore.WarnLevel {
		t.Errorf("level = %v, want warn", e.Level)
	}
	ctx := e.ContextMap()
	if ctx["status"] != int64(503) || ctx["ip"] != "192.0.2.5" || ctx["bytes"] != int64(17) {
		t.Errorf("unexpected fields: %v", ctx)
	}
	after := testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues("POST", "503"))
	if after != before+1 {
		t.Errorf("http_requests_total not incremented: %v → %v", before, after)
	}
}

func TestAccessLogDefaultStatus(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := AccessLog(zap.New(core))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got := logs.All()[0].ContextMap()["status"]; got != int64(200) {
		t.Fatalf("status = %v, want 200", got)
	}
}

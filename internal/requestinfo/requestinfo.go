// internal/requestinfo/requestinfo.go
//
// Per-request metadata for the access log.
//
/*
Context
--------
`Enrich` sits first in the chain.  For every request it:

  1. Extracts the left-most client IP from X-Forwarded-For or X-Real-IP,
     falling back to `r.RemoteAddr`.
  2. Parses the User-Agent header through internal/ua.
  3. Looks up the country when a GeoLite2 database was opened.
  4. Stores a `*Info` in the request context.

Notes
-----
  - The GeoIP reader is optional.  Without it Country stays empty.
  - Info holds no handles or buffers, so it is safe to log.
  - Oxford commas, two spaces after periods.  No em dash.
*/
package requestinfo

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/oschwald/geoip2-golang"

	"github.com/yanizio/animecatalog/internal/ua"
)

// Info describes one inbound request.
type Info struct {
	IP      net.IP
	Country string // ISO code, "" when unknown
	UA      ua.Info
	Start   time.Time
}

/*──────────────────────────── GeoIP reader ─────────────────────────────────*/

var geoReader atomic.Pointer[geoip2.Reader]

// InitGeo opens a GeoLite2 Country (or City) database.  Call once from
// main; lookups are skipped until it succeeds.
func InitGeo(dbPath string) error {
	r, err := geoip2.Open(dbPath)
	if err != nil {
		return err
	}
	if old := geoReader.Swap(r); old != nil {
		_ = old.Close()
	}
	return nil
}

// CloseGeo releases the reader opened by InitGeo.
func CloseGeo() {
	if r := geoReader.Swap(nil); r != nil {
		_ = r.Close()
	}
}

func lookupCountry(ip net.IP) string {
	r := geoReader.Load()
	if r == nil || ip == nil {
		return ""
	}
	rec, err := r.Country(ip)
	if err != nil {
		return ""
	}
	return rec.Country.IsoCode
}

/*──────────────────────────── middleware ───────────────────────────────────*/

type ctxKey struct{}

// Enrich attaches *Info to the request context and forwards.
func Enrich(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		info := &Info{
			IP:      ip,
			Country: lookupCountry(ip),
			UA:      ua.Parse(r.UserAgent()),
			Start:   time.Now(),
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, info)))
	})
}

// FromContext returns the value stored by Enrich, or nil.
func FromContext(ctx context.Context) *Info {
	v, _ := ctx.Value(ctxKey{}).(*Info)
	return v
}

// clientIP extracts the left-most address from X-Forwarded-For or
// X-Real-IP, falling back to r.RemoteAddr ("ip:port").
func clientIP(r *http.Request) net.IP {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, part := range strings.Split(xff, ",") {
			if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil {
				return ip
			}
		}
	}
	if xrip := r.Header.Get("X-Real-Ip"); xrip != "" {
		if ip := net.ParseIP(strings.TrimSpace(xrip)); ip != nil {
			return ip
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return net.ParseIP(host)
	}
	return nil
}

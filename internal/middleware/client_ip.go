package middleware

import (
	"context"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/2beens/portfolio/pkg"
)

type clientIPCtxKey struct{}

// ClientIP resolves the client address once per request and keeps it in the
// request context. Proxy headers are honoured only when trustProxyHeaders is
// set; otherwise the socket peer address is used.
func ClientIP(trustProxyHeaders bool) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, err := pkg.ReadUserIP(r, trustProxyHeaders)
			if err != nil {
				log.Debugf("client ip: %s", err)
				ip = r.RemoteAddr
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), clientIPCtxKey{}, ip)))
		})
	}
}

// ClientIPFromContext returns the address stored by ClientIP. Without it,
// the socket peer of r is used.
func ClientIPFromContext(r *http.Request) string {
	if ip, ok := r.Context().Value(clientIPCtxKey{}).(string); ok && ip != "" {
		return ip
	}
	if ip, err := pkg.ReadUserIP(r, false); err == nil {
		return ip
	}
	return r.RemoteAddr
}

package middleware

import (
	"net/http"
	"time"

	"github.com/mssola/useragent"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

func LogRequest() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)

			if !log.IsLevelEnabled(log.DebugLevel) {
				return
			}

			fields := log.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start).String(),
			}
			if sc := trace.SpanContextFromContext(r.Context()); sc.HasTraceID() {
				fields["trace_id"] = sc.TraceID().String()
			}
			if uaString := r.Header.Get("User-Agent"); uaString != "" {
				ua := useragent.New(uaString)
				browser, version := ua.Browser()
				fields["browser"] = browser + " " + version
				fields["os"] = ua.OS()
				fields["bot"] = ua.Bot()
			}
			log.WithFields(fields).Debug(" ====> request")
		})
	}
}

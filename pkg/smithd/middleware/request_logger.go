package middleware

import (
	"net/http"
	"time"

	chi_middleware "github.com/go-chi/chi/middleware"
	log "github.com/sirupsen/logrus"
)

// RequestLogFields extracts loggable metadata from an incoming request.
func RequestLogFields(r *http.Request) log.Fields {
	return log.Fields{
		"remote_addr": r.RemoteAddr,
		"method":      r.Method,
		"path":        r.URL.Path,
	}
}

// RequestLogger logs every request together with its response code and
// processing time.
func RequestLogger() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chi_middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.WithFields(RequestLogFields(r)).WithFields(log.Fields{
				"response_code": ww.Status(),
				"duration":      time.Since(start).String(),
			}).Debugf("%s %s (%d)", r.Method, r.URL.Path, ww.Status())
		}
		return http.HandlerFunc(fn)
	}
}

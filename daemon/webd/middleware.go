package webd

import (
	"bytes"
	"net/http"
	"os"

	ghandlers "github.com/gorilla/handlers"
	"github.com/jellydator/ttlcache/v3"
)

// https://github.com/gorilla/mux#middleware

func loggingMiddleware(next http.Handler) http.Handler {
	return ghandlers.CombinedLoggingHandler(os.Stdout, next)
}

func permissiveCorsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Add("Access-Control-Allow-Headers", "Origin, X-Requested-With, Content-Type, Accept, Authorization")
		next.ServeHTTP(w, r)
	})
}

func contentTypeMiddlewareFunc(contentType string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", contentType)
			next.ServeHTTP(w, r)
		})
	}
}

// recordingWriter buffers a response body so a 200 can be cached whole.
type recordingWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (w *recordingWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// cachingMiddleware serves repeated GETs from the TTL cache, keyed by
// request URI. Only successful responses are cached.
func (s *WebDaemon) cachingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}
		key := r.URL.RequestURI()
		if item := s.resultCache.Get(key); item != nil {
			w.Header().Set("X-Cache", "HIT")
			_, _ = w.Write(item.Value())
			return
		}
		rec := &recordingWriter{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == http.StatusOK {
			s.resultCache.Set(key, rec.body.Bytes(), ttlcache.DefaultTTL)
		}
	})
}

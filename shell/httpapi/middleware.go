package httpapi

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/AntonStoeckl/bike-loan-engine-go/shell/identity"
)

const (
	headerAuthorization = "Authorization"
	bearerPrefix        = "Bearer "

	logMsgRequest     = "http request"
	logAttrMethod     = "method"
	logAttrPath       = "path"
	logAttrStatus     = "status"
	logAttrDurationMS = "duration_ms"
)

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get(headerAuthorization)
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}

	token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))

	return token, token != ""
}

// authenticate puts the actor of a valid bearer token into the request context.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			s.writeJSON(w, http.StatusUnauthorized, errorBody{Code: CodeUnauthenticated, Message: "bearer token required"})
			return
		}

		actor, err := s.verifier.Verify(token)
		if err != nil {
			s.writeJSON(w, http.StatusUnauthorized, errorBody{Code: CodeUnauthenticated, Message: err.Error()})
			return
		}

		next.ServeHTTP(w, r.WithContext(identity.WithActor(r.Context(), actor)))
	})
}

// cronOnly accepts the shared cron secret as bearer token.
func (s *Server) cronOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.cronSecret)) != 1 {
			s.writeJSON(w, http.StatusUnauthorized, errorBody{Code: CodeUnauthenticated, Message: "invalid cron secret"})
			return
		}

		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// logRequests logs every request at debug level with its route template.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.logger == nil {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if template, err := route.GetPathTemplate(); err == nil {
				path = template
			}
		}

		s.logger.Debug(logMsgRequest,
			logAttrMethod, r.Method,
			logAttrPath, path,
			logAttrStatus, recorder.status,
			logAttrDurationMS, time.Since(start).Milliseconds(),
		)
	})
}

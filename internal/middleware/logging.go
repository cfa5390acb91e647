// internal/middleware/logging.go

package middleware

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// LogMiddleware logs each request handled by the relayd mux. The websocket
// endpoint hijacks the connection, so its log line spans the whole client
// session; long durations there are normal, not slow handlers.
func LogMiddleware(logger *logrus.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			logger.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
				"remote":   r.RemoteAddr,
			}).Info("relayd request")
		})
	}
}

// LogWebSocketConnect logs an accepted relay client upgrade and returns the
// accept time, which the matching disconnect log uses to report how long the
// client stayed subscribed.
func LogWebSocketConnect(logger *logrus.Logger, remoteAddr string, path string) time.Time {
	logger.WithFields(logrus.Fields{
		"remote": remoteAddr,
		"path":   path,
	}).Info("relay client connected")
	return time.Now()
}

// LogWebSocketDisconnect logs a relay client going away, with the session
// length and the error that ended the connection if there was one.
func LogWebSocketDisconnect(logger *logrus.Logger, remoteAddr string, path string, connectedAt time.Time, err error) {
	fields := logrus.Fields{
		"remote":  remoteAddr,
		"path":    path,
		"session": time.Since(connectedAt),
	}
	if err != nil {
		fields["error"] = err
	}
	logger.WithFields(fields).Info("relay client disconnected")
}

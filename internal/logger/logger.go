package logger

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	units "github.com/docker/go-units"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const RequestIDHeader = "X-Request-Id"

var Log *zap.Logger = zap.NewNop()

type (
	responseData struct {
		status int
		size   int
	}

	loggingResponseWriter struct {
		http.ResponseWriter
		responseData *responseData
	}
)

func (r *loggingResponseWriter) Write(b []byte) (int, error) {
	if r.responseData.status == 0 {
		r.responseData.status = http.StatusOK
	}
	size, err := r.ResponseWriter.Write(b)
	r.responseData.size += size
	return size, err
}

func (r *loggingResponseWriter) WriteHeader(statusCode int) {
	r.ResponseWriter.WriteHeader(statusCode)
	if r.responseData.status == 0 {
		r.responseData.status = statusCode
	}
}

// Flush keeps server-sent event streams working through the wrapper.
func (r *loggingResponseWriter) Flush() {
	if flusher, ok := r.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (r *loggingResponseWriter) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Initialize replaces Log with a logger at level. Format is "console" for
// development output or "json" for production encoding.
func Initialize(level string, format string) error {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return err
	}

	var cfg zap.Config
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "console":
		cfg = zap.NewDevelopmentConfig()
	case "json":
		cfg = zap.NewProductionConfig()
	default:
		return fmt.Errorf("unknown log format %q", format)
	}
	cfg.Level = lvl

	zl, err := cfg.Build()
	if err != nil {
		return err
	}

	Log = zl
	return nil
}

type requestIDKey struct{}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Middleware tags each request with an id and logs it once the response is
// written.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		lw := &loggingResponseWriter{
			ResponseWriter: w,
			responseData:   &responseData{},
		}
		next.ServeHTTP(lw, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, requestID)))

		status := lw.responseData.status
		if status == 0 {
			status = http.StatusOK
		}
		Log.Info("request",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("uri", r.RequestURI),
			zap.Int("status", status),
			zap.String("size", units.HumanSize(float64(lw.responseData.size))),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mj1618/focusorder/internal/protocol"
)

// DefaultMaxBody caps request bodies.
const DefaultMaxBody int64 = 8 << 20

// HTTPConfig configures the HTTP surface.
type HTTPConfig struct {
	Addr    string
	MaxBody int64
	// RPS and Burst limit requests per client IP. RPS <= 0 disables limiting.
	RPS   float64
	Burst int
}

// Handler returns the service's routes wrapped in its middleware.
func Handler(svc *Service, cfg HTTPConfig, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxBody <= 0 {
		cfg.MaxBody = DefaultMaxBody
	}

	mux := http.NewServeMux()
	annotate := annotateHandler(svc, cfg.MaxBody, logger)
	mux.Handle("POST /annotate", annotate)
	mux.Handle("POST /api/annotate", annotate)
	health := healthHandler(svc)
	mux.Handle("GET /health", health)
	mux.Handle("GET /{$}", health)

	var h http.Handler = mux
	if cfg.RPS > 0 {
		h = NewRateLimiter(cfg.RPS, cfg.Burst).Middleware(h)
	}
	h = withCORS(h)
	h = withAccessLog(logger, h)
	return withRequestID(h)
}

func annotateHandler(svc *Service, maxBody int64, logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := http.MaxBytesReader(w, r.Body, maxBody)
		req, err := protocol.DecodeRequest(body)
		if err == nil {
			var resp protocol.AnnotateResponse
			resp, err = svc.Annotate(r.Context(), req)
			if err == nil {
				writeJSON(w, http.StatusOK, resp)
				return
			}
		}
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			logger.Error("annotate failed", zap.String("id", RequestID(r.Context())), zap.Error(err))
		}
		writeJSON(w, status, protocol.ErrorResponse(err))
	})
}

func healthHandler(svc *Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Health())
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, protocol.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, protocol.ErrBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ListenAndServe serves the HTTP surface until ctx is done, then shuts
// down gracefully.
func ListenAndServe(ctx context.Context, svc *Service, cfg HTTPConfig, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           Handler(svc, cfg, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

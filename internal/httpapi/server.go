package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sizewatch/internal/service"
	"sizewatch/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	ListElements() []types.ElementStatus
	GetElement(id string) (types.ElementStatus, error)
	PatchStyle(id string, patch types.StylePatch) error
	CompleteTransition(id, property string) error
	SetViewport(w, h float64)
	CreateObserver(targets []string) (types.ObserverStatus, error)
	DeleteObserver(id string) error
	ListObservers() []types.ObserverStatus
	Status() types.StatusResponse
	Ready() bool
	Subscribe() (<-chan types.BatchPayload, func())
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))
	}

	// JSON API group: compression and metrics. The websocket endpoint
	// stays outside because both middlewares wrap the response writer in
	// ways that break the connection hijack.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Compress(5))
		r.Use(MetricsMiddleware)
		r.Use(requestLogger)

		r.Get("/elements", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, types.ElementsResponse{Elements: svc.ListElements()})
		})

		r.Get("/elements/{id}", func(w http.ResponseWriter, r *http.Request) {
			el, err := svc.GetElement(chi.URLParam(r, "id"))
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, el)
		})

		r.Patch("/elements/{id}/style", func(w http.ResponseWriter, r *http.Request) {
			var patch types.StylePatch
			if !decodeJSON(w, r, &patch) {
				return
			}
			if err := svc.PatchStyle(chi.URLParam(r, "id"), patch); err != nil {
				writeServiceError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})

		r.Post("/elements/{id}/transition", func(w http.ResponseWriter, r *http.Request) {
			var req types.TransitionRequest
			if !decodeJSON(w, r, &req) {
				return
			}
			if strings.TrimSpace(req.Property) == "" {
				writeJSONError(w, http.StatusBadRequest, "property is required")
				return
			}
			if err := svc.CompleteTransition(chi.URLParam(r, "id"), req.Property); err != nil {
				writeServiceError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})

		r.Post("/viewport", func(w http.ResponseWriter, r *http.Request) {
			var req types.ViewportRequest
			if !decodeJSON(w, r, &req) {
				return
			}
			if req.Width <= 0 || req.Height <= 0 {
				writeJSONError(w, http.StatusBadRequest, "width and height must be positive")
				return
			}
			svc.SetViewport(req.Width, req.Height)
			w.WriteHeader(http.StatusNoContent)
		})

		r.Get("/observers", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, types.ObserversResponse{Observers: svc.ListObservers()})
		})

		r.Post("/observers", func(w http.ResponseWriter, r *http.Request) {
			var req types.CreateObserverRequest
			if !decodeJSON(w, r, &req) {
				return
			}
			if len(req.Targets) == 0 {
				writeJSONError(w, http.StatusBadRequest, "targets is required")
				return
			}
			obs, err := svc.CreateObserver(req.Targets)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(obs)
		})

		r.Delete("/observers/{id}", func(w http.ResponseWriter, r *http.Request) {
			if err := svc.DeleteObserver(chi.URLParam(r, "id")); err != nil {
				writeServiceError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})

		r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, svc.Status())
		})

		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ok"))
		})

		r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
			if svc.Ready() {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ready"))
				return
			}
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("disconnected"))
		})

		// Prometheus metrics endpoint
		r.Get("/metrics", promhttp.Handler().ServeHTTP)
	})

	// Batch stream (websocket)
	r.Get("/events", eventsHandler(svc))

	return r
}

// decodeJSON validates content type and decodes a limited JSON body.
// Writes the error response itself and returns false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// writeServiceError maps well-known service errors to HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	if service.IsNotFound(err) {
		writeJSONError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSONError(w, http.StatusInternalServerError, err.Error())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
	}
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{
		Error: msg,
		Code:  status,
	})
}

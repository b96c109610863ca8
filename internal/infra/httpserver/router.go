package httpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	appanalysis "github.com/ericlunden/foodlab-core/internal/application/analysis"
	domain "github.com/ericlunden/foodlab-core/internal/domain/analysis"
	domcache "github.com/ericlunden/foodlab-core/internal/domain/cache"
	"github.com/ericlunden/foodlab-core/internal/infra/ai/prompt"
	"github.com/ericlunden/foodlab-core/internal/middleware"
)

// Analyzer is the producer source behind the resolve endpoint. Satisfied by
// the openai client; nil means no provider is configured and text inputs
// fall back to the offline reconstruction tier.
type Analyzer interface {
	AnalyzeText(ctx context.Context, foodName string) (domain.RawAnalysis, error)
	AnalyzeImage(ctx context.Context, image []byte) (domain.RawAnalysis, error)
}

type Router struct {
	svc      *appanalysis.Service
	analyzer Analyzer
}

func NewRouter(svc *appanalysis.Service, analyzer Analyzer, checkers map[string]middleware.HealthChecker) http.Handler {
	r := &Router{svc: svc, analyzer: analyzer}
	mux := chi.NewRouter()

	mux.Get("/health", middleware.HealthHandler(checkers))
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1", func(rt chi.Router) {
		rt.Post("/analyses/resolve", r.wrap(r.handleResolve))
		rt.Get("/analyses", r.wrap(r.handleList))
		rt.Get("/analyses/{key}", r.wrap(r.handleLookup))
		rt.Put("/analyses/{key}/favorite", r.wrap(r.handleSetFavorite))
		rt.Delete("/analyses/{key}", r.wrap(r.handleDelete))
		rt.Post("/keys", r.wrap(r.handleComputeKey))
		rt.Get("/faults", r.wrap(r.handleFaults))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// badRequest marks caller errors for the wrap adapter.
type badRequest struct{ err error }

func (b badRequest) Error() string { return b.err.Error() }

var errNotFound = errors.New("not found")

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			var br badRequest
			if errors.As(err, &br) {
				http.Error(w, br.Error(), http.StatusBadRequest)
				return
			}
			if errors.Is(err, errNotFound) {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			if errors.Is(err, domain.ErrQuotaExceeded) {
				http.Error(w, "ai quota exceeded", http.StatusTooManyRequests)
				return
			}
			var pe *domain.ProviderError
			if errors.As(err, &pe) {
				middleware.IncrementProviderFailures()
				http.Error(w, err.Error(), http.StatusBadGateway)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

// POST /v1/analyses/resolve
// Body: {"image_base64": "...", "food_name": "...", "scan_type": "food", "input_method": "camera"}
// Image input keys by content hash of the exact bytes; text input keys by
// normalized name + input method.
func (r *Router) handleResolve(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		ImageBase64 string `json:"image_base64"`
		FoodName    string `json:"food_name"`
		ScanType    string `json:"scan_type"`
		InputMethod string `json:"input_method"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest{err}
	}
	if err := middleware.ValidateInputMethod(body.InputMethod); err != nil {
		return badRequest{err}
	}
	if err := middleware.ValidateScanType(body.ScanType); err != nil {
		return badRequest{err}
	}

	var (
		identity domcache.Identity
		producer domain.Producer
	)
	switch {
	case body.ImageBase64 != "":
		image, err := base64.StdEncoding.DecodeString(body.ImageBase64)
		if err != nil {
			return badRequest{fmt.Errorf("invalid image_base64: %w", err)}
		}
		if r.analyzer == nil {
			return badRequest{fmt.Errorf("image analysis requires a configured AI provider")}
		}
		identity = domcache.ImageIdentity(image)
		producer = domain.ProducerFunc(func(ctx context.Context) (domain.RawAnalysis, error) {
			return r.analyzer.AnalyzeImage(ctx, image)
		})
	case body.FoodName != "":
		name := middleware.SanitizeString(body.FoodName)
		if err := middleware.ValidateFoodName(name); err != nil {
			return badRequest{err}
		}
		identity = domcache.TextIdentity{FoodName: name, InputMethod: body.InputMethod}
		if r.analyzer != nil {
			producer = domain.ProducerFunc(func(ctx context.Context) (domain.RawAnalysis, error) {
				return r.analyzer.AnalyzeText(ctx, name)
			})
		} else {
			producer = domain.ProducerFunc(func(ctx context.Context) (domain.RawAnalysis, error) {
				return prompt.ReconstructAnalysis(name, time.Now()), nil
			})
		}
	default:
		return badRequest{fmt.Errorf("either image_base64 or food_name is required")}
	}

	middleware.IncrementResolves()
	result, err := r.svc.Resolve(req.Context(), identity, body.ScanType, body.InputMethod, producer)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(result)
}

// GET /v1/analyses?sort=newest&limit=50
func (r *Router) handleList(w http.ResponseWriter, req *http.Request) error {
	order, err := middleware.ValidateSort(req.URL.Query().Get("sort"))
	if err != nil {
		return badRequest{err}
	}
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	limit = middleware.ValidateLimit(limit)

	entries, err := r.svc.ListAll(req.Context(), order)
	if err != nil {
		return err
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(entries)
}

// GET /v1/analyses/{key}
func (r *Router) handleLookup(w http.ResponseWriter, req *http.Request) error {
	key := chi.URLParam(req, "key")
	if err := middleware.ValidateKey(key); err != nil {
		return badRequest{err}
	}

	entry, err := r.svc.Lookup(req.Context(), key)
	if err != nil {
		return err
	}
	if entry == nil {
		middleware.IncrementCacheMisses()
		return errNotFound
	}
	middleware.IncrementCacheHits()

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(entry)
}

// PUT /v1/analyses/{key}/favorite
// Body: {"favorite": true}
func (r *Router) handleSetFavorite(w http.ResponseWriter, req *http.Request) error {
	key := chi.URLParam(req, "key")
	if err := middleware.ValidateKey(key); err != nil {
		return badRequest{err}
	}
	var body struct {
		Favorite bool `json:"favorite"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest{err}
	}

	if err := r.svc.SetFavorite(req.Context(), key, body.Favorite); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// DELETE /v1/analyses/{key}
func (r *Router) handleDelete(w http.ResponseWriter, req *http.Request) error {
	key := chi.URLParam(req, "key")
	if err := middleware.ValidateKey(key); err != nil {
		return badRequest{err}
	}

	if err := r.svc.Delete(req.Context(), key); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// POST /v1/keys
// Body: {"image_base64": "..."} or {"food_name": "...", "input_method": "text"}
// Computes the content fingerprint without resolving anything.
func (r *Router) handleComputeKey(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		ImageBase64 string `json:"image_base64"`
		FoodName    string `json:"food_name"`
		InputMethod string `json:"input_method"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest{err}
	}

	var identity domcache.Identity
	switch {
	case body.ImageBase64 != "":
		image, err := base64.StdEncoding.DecodeString(body.ImageBase64)
		if err != nil {
			return badRequest{fmt.Errorf("invalid image_base64: %w", err)}
		}
		identity = domcache.ImageIdentity(image)
	case body.FoodName != "":
		if err := middleware.ValidateInputMethod(body.InputMethod); err != nil {
			return badRequest{err}
		}
		identity = domcache.TextIdentity{FoodName: body.FoodName, InputMethod: body.InputMethod}
	default:
		return badRequest{fmt.Errorf("either image_base64 or food_name is required")}
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(map[string]string{"key": r.svc.ComputeKey(identity)})
}

// GET /v1/faults?limit=20
func (r *Router) handleFaults(w http.ResponseWriter, req *http.Request) error {
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	list, err := r.svc.LatestFaults(req.Context(), limit)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}

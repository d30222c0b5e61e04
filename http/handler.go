package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/e-mutai/pesa-smart-guide/entities"
	"github.com/e-mutai/pesa-smart-guide/errs"
)

// Recommender is the pipeline behind the API, implemented by recommend.Service.
type Recommender interface {
	Recommend(ctx context.Context, profile entities.UserProfile) ([]entities.EnrichedFund, error)
	RiskProfile(ctx context.Context, profile entities.UserProfile) entities.RiskProfileResp
	Funds() []entities.Fund
	Fund(id string) (entities.EnrichedFund, error)
	Forecast(id string, periods int) ([]entities.ForecastPoint, error)
	Metrics(id string) (entities.PerformanceMetrics, error)
}

// AsyncRecommender hands a profile to a worker and waits for its answer.
type AsyncRecommender interface {
	Recommend(ctx context.Context, profile entities.UserProfile) (entities.RecommendationResult, error)
}

type FundHandler struct {
	Logger  *zap.Logger
	Service Recommender
	Async   AsyncRecommender
}

// NewRouter mounts every route behind the usual middleware stack. The async
// route is only mounted when h.Async is set.
func NewRouter(h FundHandler, timeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))

	r.Get("/", h.Root)
	r.Route("/api", func(r chi.Router) {
		r.Post("/recommendations", h.Recommend)
		if h.Async != nil {
			r.Post("/recommendations/async", h.RecommendAsync)
		}
		r.Post("/risk-profile", h.RiskProfile)
		r.Post("/forecast", h.Forecast)
		r.Get("/funds", h.Funds)
		r.Get("/funds/{id}", h.Fund)
		r.Get("/funds/{id}/metrics", h.Metrics)
	})

	return r
}

func (h FundHandler) Root(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, "Root", map[string]string{"message": "Investment Recommendation API is running"})
}

func (h FundHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	logger := h.logger(r, "Recommend")

	var profile entities.UserProfile
	if err := decode(r, &profile); err != nil {
		h.writeError(w, logger, err)
		return
	}

	res, err := h.Service.Recommend(r.Context(), profile)
	if err != nil {
		h.writeError(w, logger, fmt.Errorf("recommend funds: %w", err))
		return
	}

	h.writeJSON(w, r, "Recommend", res)
}

func (h FundHandler) RecommendAsync(w http.ResponseWriter, r *http.Request) {
	logger := h.logger(r, "RecommendAsync")
	logger.Info("start run async")

	var profile entities.UserProfile
	if err := decode(r, &profile); err != nil {
		h.writeError(w, logger, err)
		return
	}

	start := time.Now()
	res, err := h.Async.Recommend(r.Context(), profile)
	if err != nil {
		h.writeError(w, logger, fmt.Errorf("recommend funds async: %w", err))
		return
	}
	logger.Info("finish run async", zap.String("cid", res.ID), zap.Duration("duration", time.Since(start)))

	if res.Error != "" {
		h.writeError(w, logger, fmt.Errorf("worker %s: %s", res.ID, res.Error))
		return
	}

	h.writeJSON(w, r, "RecommendAsync", res.Funds)
}

func (h FundHandler) RiskProfile(w http.ResponseWriter, r *http.Request) {
	logger := h.logger(r, "RiskProfile")

	var profile entities.UserProfile
	if err := decode(r, &profile); err != nil {
		h.writeError(w, logger, err)
		return
	}

	h.writeJSON(w, r, "RiskProfile", h.Service.RiskProfile(r.Context(), profile))
}

func (h FundHandler) Funds(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, "Funds", h.Service.Funds())
}

func (h FundHandler) Fund(w http.ResponseWriter, r *http.Request) {
	logger := h.logger(r, "Fund")

	fund, err := h.Service.Fund(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, logger, fmt.Errorf("get fund: %w", err))
		return
	}

	h.writeJSON(w, r, "Fund", fund)
}

func (h FundHandler) Forecast(w http.ResponseWriter, r *http.Request) {
	logger := h.logger(r, "Forecast")

	var req entities.ForecastReq
	if err := decode(r, &req); err != nil {
		h.writeError(w, logger, err)
		return
	}
	if req.FundID == "" {
		h.writeError(w, logger, fmt.Errorf("fundId is required: %w", errs.ErrInvalidRequest))
		return
	}

	points, err := h.Service.Forecast(req.FundID, req.Periods)
	if err != nil {
		h.writeError(w, logger, fmt.Errorf("forecast fund: %w", err))
		return
	}

	h.writeJSON(w, r, "Forecast", entities.ForecastResp{Forecast: points})
}

func (h FundHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	logger := h.logger(r, "Metrics")

	metrics, err := h.Service.Metrics(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, logger, fmt.Errorf("fund metrics: %w", err))
		return
	}

	h.writeJSON(w, r, "Metrics", metrics)
}

func (h FundHandler) logger(r *http.Request, method string) *zap.Logger {
	return h.Logger.With(
		zap.String("method", method),
		zap.String("request_id", middleware.GetReqID(r.Context())),
	)
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("decode request: %w: %w", errs.ErrInvalidRequest, err)
	}
	return nil
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrInvalidSeries), errors.Is(err, errs.ErrInvalidRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h FundHandler) writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		logger.Error(err.Error())
	} else {
		logger.Info(err.Error(), zap.Int("status", status))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(entities.ErrorResp{Error: err.Error()}); err != nil {
		logger.Error(fmt.Errorf("encode error response: %w", err).Error())
	}
}

func (h FundHandler) writeJSON(w http.ResponseWriter, r *http.Request, method string, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger(r, method).Error(fmt.Errorf("encode response: %w", err).Error())
	}
}

package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/fekuna/omnipos-restaurant-service/internal/analytics"
	"github.com/fekuna/omnipos-restaurant-service/internal/analytics/dto"
	"github.com/fekuna/omnipos-restaurant-service/internal/apperror"
	"github.com/fekuna/omnipos-restaurant-service/internal/middleware"
	"github.com/fekuna/omnipos-restaurant-service/internal/model"
	"github.com/fekuna/omnipos-restaurant-service/pkg/logger"
	"github.com/fekuna/omnipos-restaurant-service/pkg/response"
	"github.com/go-chi/chi/v5"
)

type AnalyticsHandler struct {
	uc               analytics.UseCase
	loc              *time.Location
	peakLookbackDays int
	logger           logger.ZapLogger
}

func NewAnalyticsHandler(uc analytics.UseCase, loc *time.Location, peakLookbackDays int, log logger.ZapLogger) *AnalyticsHandler {
	return &AnalyticsHandler{
		uc:               uc,
		loc:              loc,
		peakLookbackDays: peakLookbackDays,
		logger:           log,
	}
}

func (h *AnalyticsHandler) Routes(r chi.Router) {
	r.Route("/analytics", func(r chi.Router) {
		r.Use(middleware.RequireRoles(h.logger, model.RoleAdmin))
		r.Get("/daily", h.DailyStats)
		r.Get("/monthly", h.MonthlyStats)
		r.Get("/peak-hours", h.PeakHours)
		r.Get("/popular-items", h.PopularItems)
		r.Get("/category-performance", h.CategoryPerformance)
		r.Get("/trends", h.SalesTrends)
		r.Get("/predictions", h.Recommendations)
		r.Get("/predict", h.PredictDemand)
		r.Post("/train", h.Train)
	})
}

func (h *AnalyticsHandler) DailyStats(w http.ResponseWriter, r *http.Request) {
	date := time.Now().In(h.loc)
	if v := r.URL.Query().Get("date"); v != "" {
		parsed, err := time.ParseInLocation("2006-01-02", v, h.loc)
		if err != nil {
			response.Error(w, h.logger, apperror.New(apperror.KindValidation, "invalid date %q, expected YYYY-MM-DD", v))
			return
		}
		date = parsed
	}

	stats, err := h.uc.DailyStats(r.Context(), date)
	if err != nil {
		response.Error(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, stats)
}

func (h *AnalyticsHandler) MonthlyStats(w http.ResponseWriter, r *http.Request) {
	month := time.Now().In(h.loc)
	if v := r.URL.Query().Get("month"); v != "" {
		parsed, err := time.ParseInLocation("2006-01", v, h.loc)
		if err != nil {
			response.Error(w, h.logger, apperror.New(apperror.KindValidation, "invalid month %q, expected YYYY-MM", v))
			return
		}
		month = parsed
	}

	stats, err := h.uc.MonthlyStats(r.Context(), month.Year(), month.Month())
	if err != nil {
		response.Error(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, stats)
}

func (h *AnalyticsHandler) PeakHours(w http.ResponseWriter, r *http.Request) {
	days, err := intParam(r, "days", h.peakLookbackDays)
	if err != nil {
		response.Error(w, h.logger, err)
		return
	}

	hours, err := h.uc.PeakHours(r.Context(), days)
	if err != nil {
		response.Error(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{"hours": hours})
}

func (h *AnalyticsHandler) PopularItems(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", 0)
	if err != nil {
		response.Error(w, h.logger, err)
		return
	}

	items, err := h.uc.PopularItems(r.Context(), limit)
	if err != nil {
		response.Error(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (h *AnalyticsHandler) CategoryPerformance(w http.ResponseWriter, r *http.Request) {
	stats, err := h.uc.CategoryPerformance(r.Context())
	if err != nil {
		response.Error(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{"categories": stats})
}

func (h *AnalyticsHandler) SalesTrends(w http.ResponseWriter, r *http.Request) {
	days, err := intParam(r, "days", 0)
	if err != nil {
		response.Error(w, h.logger, err)
		return
	}

	trends, err := h.uc.SalesTrends(r.Context(), days)
	if err != nil {
		response.Error(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, trends)
}

func (h *AnalyticsHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	recs, err := h.uc.Recommendations(r.Context(), time.Now())
	if err != nil {
		response.Error(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{"recommendations": recs})
}

func (h *AnalyticsHandler) PredictDemand(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	category, err := model.ParseCategory(q.Get("category"))
	if err != nil {
		response.Error(w, h.logger, apperror.New(apperror.KindValidation, "%s", err.Error()))
		return
	}

	window := dto.PredictionWindow{}
	if v := q.Get("start"); v != "" {
		if window.Start, err = time.Parse(time.RFC3339, v); err != nil {
			response.Error(w, h.logger, apperror.New(apperror.KindValidation, "invalid start %q, expected RFC3339", v))
			return
		}
	}
	if window.Hours, err = intParam(r, "hours", 1); err != nil {
		response.Error(w, h.logger, err)
		return
	}

	prediction, err := h.uc.PredictDemand(r.Context(), category, window)
	if err != nil {
		response.Error(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, prediction)
}

func (h *AnalyticsHandler) Train(w http.ResponseWriter, r *http.Request) {
	report, err := h.uc.TrainDemandModel(r.Context())
	if err != nil {
		response.Error(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, report)
}

func intParam(r *http.Request, name string, fallback int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, apperror.New(apperror.KindValidation, "%s must be a non-negative integer", name)
	}
	return n, nil
}

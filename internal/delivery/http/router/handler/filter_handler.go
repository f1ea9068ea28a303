package handler

import (
	"log/slog"
	"net/http"

	"wander/internal/delivery/http/response"
	"wander/internal/domain/entity"
	"wander/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// FilterHandlerParams holds dependencies for FilterHandler, injected by Fx.
type FilterHandlerParams struct {
	fx.In

	FilterUC usecase.FilterUsecase
	Logger   *slog.Logger
}

// FilterHandler exposes the compound filter state over HTTP.
type FilterHandler struct {
	filterUC usecase.FilterUsecase
	logger   *slog.Logger
}

// NewFilterHandler is the constructor for FilterHandler
func NewFilterHandler(params FilterHandlerParams) *FilterHandler {
	return &FilterHandler{
		filterUC: params.FilterUC,
		logger:   params.Logger,
	}
}

// UpdateFiltersRequest is a partial update: absent fields leave the current
// state untouched, the Clear* flags unset a criterion explicitly, and an
// empty list deactivates the corresponding set filter.
type UpdateFiltersRequest struct {
	Country         *string  `json:"country,omitempty"`
	ClearCountry    bool     `json:"clear_country,omitempty"`
	SearchTerm      *string  `json:"search_term,omitempty"`
	ClearSearch     bool     `json:"clear_search,omitempty"`
	RadiusKm        *float64 `json:"radius_km,omitempty" validate:"omitempty,gt=0"`
	ClearRadius     bool     `json:"clear_radius,omitempty"`
	PopulationMin   *int64   `json:"population_min,omitempty" validate:"omitempty,min=0"`
	PopulationMax   *int64   `json:"population_max,omitempty" validate:"omitempty,min=0"`
	ClearPopulation bool     `json:"clear_population,omitempty"`
	AgeMin          *int     `json:"age_min,omitempty" validate:"omitempty,min=0"`
	AgeMax          *int     `json:"age_max,omitempty" validate:"omitempty,min=0"`
	LocalStatus     []string `json:"local_status,omitempty" validate:"omitempty,dive,oneof=local traveller"`
	BudgetTiers     []int    `json:"budget_tiers,omitempty"`
	Genders         []string `json:"genders,omitempty"`
	Languages       []string `json:"languages,omitempty"`
	Cuisines        []string `json:"cuisines,omitempty"`
}

// UpdateFilters handles PUT /map/filters
//
// Every change lands in the same debounce window, so a request touching
// several criteria still triggers a single downstream recompute.
func (h *FilterHandler) UpdateFilters(c echo.Context) error {
	var req UpdateFiltersRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid filter input")
	}

	if err := c.Validate(&req); err != nil {
		return response.BadRequest(c, "VALIDATION_ERROR", err.Error())
	}

	switch {
	case req.Country != nil:
		h.filterUC.SetCountry(req.Country)
	case req.ClearCountry:
		h.filterUC.SetCountry(nil)
	}

	switch {
	case req.SearchTerm != nil:
		h.filterUC.SetSearch(req.SearchTerm)
	case req.ClearSearch:
		h.filterUC.SetSearch(nil)
	}

	switch {
	case req.RadiusKm != nil:
		h.filterUC.SetRadius(req.RadiusKm)
	case req.ClearRadius:
		h.filterUC.SetRadius(nil)
	}

	switch {
	case req.PopulationMin != nil || req.PopulationMax != nil:
		h.filterUC.SetPopulationRange(req.PopulationMin, req.PopulationMax)
	case req.ClearPopulation:
		h.filterUC.SetPopulationRange(nil, nil)
	}

	if req.AgeMin != nil || req.AgeMax != nil {
		minAge, maxAge := entity.DefaultAgeMin, entity.DefaultAgeMax
		if req.AgeMin != nil {
			minAge = *req.AgeMin
		}
		if req.AgeMax != nil {
			maxAge = *req.AgeMax
		}
		h.filterUC.SetAgeRange(minAge, maxAge)
	}

	if req.LocalStatus != nil {
		statuses := make([]entity.TravelStatus, 0, len(req.LocalStatus))
		for _, status := range req.LocalStatus {
			statuses = append(statuses, entity.TravelStatus(status))
		}
		h.filterUC.SetLocalStatus(statuses)
	}

	if req.BudgetTiers != nil {
		h.filterUC.SetBudget(req.BudgetTiers)
	}

	if req.Genders != nil {
		h.filterUC.SetGender(req.Genders)
	}

	if req.Languages != nil {
		h.filterUC.SetLanguages(req.Languages)
	}

	if req.Cuisines != nil {
		h.filterUC.SetCuisines(req.Cuisines)
	}

	return response.Success(c, http.StatusAccepted, nil, "Filter update scheduled")
}

// ResetFilters handles POST /map/filters/reset
func (h *FilterHandler) ResetFilters(c echo.Context) error {
	h.filterUC.Reset()

	return response.Success(c, http.StatusOK, h.filterUC.State(), "Filters reset successfully")
}

// GetFilters handles GET /map/filters
func (h *FilterHandler) GetFilters(c echo.Context) error {
	return response.Success(c, http.StatusOK, h.filterUC.State(), "Filters retrieved successfully")
}

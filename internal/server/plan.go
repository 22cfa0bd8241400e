package server

import (
	"errors"
	"net/http"

	"DietPlanner/internal/diet"
	"DietPlanner/internal/foods"
	"DietPlanner/internal/history"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Error bodies returned to the browser.
const (
	msgInvalidAge        = "Invalid age"
	msgMissingConditions = "Provide at least one health condition"
	msgPlanFailed        = "Unable to generate a plan from the food dataset"
	msgHistoryFailed     = "Unable to read plan history"
)

// parsePlanForm validates the plan form. It writes the 400 response itself
// and returns ok=false when the input is rejected.
func parsePlanForm(c echo.Context) (diet.PlanRequest, bool, error) {
	req, err := diet.ParseRequest(c.FormValue("age"), c.FormValue("gender"), c.FormValue("health_conditions"))
	if err == nil {
		return req, true, nil
	}

	var invalid *diet.InvalidInputError
	switch {
	case errors.As(err, &invalid):
		return req, false, c.JSON(http.StatusBadRequest, map[string]string{"error": msgInvalidAge})
	case errors.Is(err, diet.ErrMissingHealthConditions):
		return req, false, c.JSON(http.StatusBadRequest, map[string]string{"error": msgMissingConditions})
	default:
		return req, false, err
	}
}

// planFailed maps assembly errors. Only a broken dataset can get here.
func planFailed(c echo.Context, err error) error {
	logger := zerolog.Ctx(c.Request().Context())

	var empty *foods.EmptyCategoryError
	if errors.As(err, &empty) {
		logger.Error().Err(err).Str("category", string(empty.Category)).Msg("Dataset is missing a meal category")
	} else {
		logger.Error().Err(err).Msg("Plan assembly failed")
	}
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": msgPlanFailed})
}

// saveHistory never fails the request; the plan has already been built.
func saveHistory(c echo.Context, store history.Store, record any) {
	if store == nil {
		return
	}
	ctx := c.Request().Context()
	if err := store.Append(ctx, record); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Failed to save plan history")
	}
}

// PlanDayHandler generates a single day and returns it as JSON.
func (s *Server) PlanDayHandler(c echo.Context) error {
	req, ok, err := parsePlanForm(c)
	if !ok {
		return err
	}

	day, err := s.Planner.AssembleDay(c.Request().Context(), req)
	if err != nil {
		return planFailed(c, err)
	}

	saveHistory(c, s.DailyHistory, day)
	return c.JSON(http.StatusOK, day)
}

// PlanWeekHandler generates Day 1 to Day 7 and returns them as a JSON array.
func (s *Server) PlanWeekHandler(c echo.Context) error {
	req, ok, err := parsePlanForm(c)
	if !ok {
		return err
	}

	week, err := s.Planner.AssembleWeek(c.Request().Context(), req)
	if err != nil {
		return planFailed(c, err)
	}

	saveHistory(c, s.WeeklyHistory, week)
	return c.JSON(http.StatusOK, week)
}

func (s *Server) historyHandler(store history.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		if store == nil {
			return c.JSON(http.StatusOK, []any{})
		}

		entries, err := store.List(c.Request().Context())
		if err != nil {
			zerolog.Ctx(c.Request().Context()).Error().Err(err).Msg("Failed to list plan history")
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": msgHistoryFailed})
		}
		return c.JSON(http.StatusOK, entries)
	}
}

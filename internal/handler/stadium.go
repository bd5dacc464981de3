package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sports-match-booking/internal/model"
	"github.com/iliyamo/sports-match-booking/internal/repository"
)

// StadiumHandler exposes stadium registration and browsing. Registration
// is manager-only; the role gate sits in the router.
type StadiumHandler struct {
	Stadiums *repository.StadiumRepo
}

func NewStadiumHandler(s *repository.StadiumRepo) *StadiumHandler {
	return &StadiumHandler{Stadiums: s}
}

type createStadiumReq struct {
	Name        string   `json:"name"`
	Unit        string   `json:"unit"`
	MaxCapacity uint32   `json:"max_capacity"`
	Activities  []string `json:"activities"`
}

type stadiumResp struct {
	ID          uint64   `json:"id"`
	Name        string   `json:"name"`
	Unit        string   `json:"unit"`
	MaxCapacity uint32   `json:"max_capacity"`
	Occupied    uint32   `json:"occupied"`
	Remaining   uint32   `json:"remaining"`
	Activities  []string `json:"activities"`
	MatchIDs    []string `json:"match_ids"`
}

func toStadiumResp(s model.Stadium) stadiumResp {
	return stadiumResp{
		ID:          s.ID,
		Name:        s.Name,
		Unit:        s.Unit,
		MaxCapacity: s.MaxCapacity,
		Occupied:    s.Occupied,
		Remaining:   s.Remaining(),
		Activities:  s.Activities,
		MatchIDs:    s.MatchIDs,
	}
}

// Create registers a stadium with its supported activities.
func (h *StadiumHandler) Create(c echo.Context) error {
	var req createStadiumReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Unit = strings.TrimSpace(req.Unit)
	if req.Name == "" || req.Unit == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name/unit required"})
	}
	if req.MaxCapacity == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "max_capacity must be positive"})
	}
	activities := make([]string, 0, len(req.Activities))
	for _, a := range req.Activities {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "empty activity"})
		}
		activities = append(activities, a)
	}
	if len(activities) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "activities required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	st := &model.Stadium{
		Name:        req.Name,
		Unit:        req.Unit,
		MaxCapacity: req.MaxCapacity,
		Activities:  activities,
	}
	if err := h.Stadiums.Create(ctx, st); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "stadium name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create stadium failed"})
	}
	return c.JSON(http.StatusCreated, toStadiumResp(*st))
}

// List returns all stadiums with their live occupancy.
func (h *StadiumHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	stadiums, err := h.Stadiums.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]stadiumResp, 0, len(stadiums))
	for _, s := range stadiums {
		out = append(out, toStadiumResp(s))
	}
	return c.JSON(http.StatusOK, echo.Map{"stadiums": out})
}

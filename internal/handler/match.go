package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sports-match-booking/internal/model"
	"github.com/iliyamo/sports-match-booking/internal/queue"
	"github.com/iliyamo/sports-match-booking/internal/repository"
	"github.com/iliyamo/sports-match-booking/internal/service"
)

// MatchHandler exposes the match lifecycle over HTTP. All orchestration
// lives in the service; this layer binds requests, maps sentinel errors
// to status codes and fires lifecycle events.
type MatchHandler struct {
	Svc *service.MatchService
}

func NewMatchHandler(svc *service.MatchService) *MatchHandler {
	return &MatchHandler{Svc: svc}
}

type createMatchReq struct {
	ActivityType string   `json:"activity_type"`
	Players      []string `json:"players"`
}

type matchResp struct {
	MatchID      string   `json:"match_id"`
	InitiatorID  uint64   `json:"initiator_id"`
	ActivityType string   `json:"activity_type"`
	StadiumName  string   `json:"stadium_name"`
	Players      []string `json:"players"`
	StartAt      string   `json:"start_at,omitempty"`
}

func toMatchResp(m model.Match) matchResp {
	resp := matchResp{
		MatchID:      m.MatchID,
		InitiatorID:  m.InitiatorID,
		ActivityType: m.ActivityType,
		StadiumName:  m.StadiumName,
		Players:      m.Players,
	}
	if !m.StartAt.IsZero() {
		resp.StartAt = m.StartAt.UTC().Format(time.RFC3339)
	}
	return resp
}

// Create books a match for the authenticated user. On success the
// response carries the name of the stadium the match was placed in.
func (h *MatchHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req createMatchReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.ActivityType = strings.ToLower(strings.TrimSpace(req.ActivityType))
	if req.ActivityType == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "activity_type required"})
	}
	players := make([]string, 0, len(req.Players))
	for _, p := range req.Players {
		p = strings.TrimSpace(p)
		if p == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "empty player name"})
		}
		players = append(players, p)
	}
	if len(players) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "players required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	matchID, stadiumName, err := h.Svc.CreateMatch(ctx, userID, req.ActivityType, players)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		case errors.Is(err, repository.ErrNoMatchingStadium):
			return c.JSON(http.StatusConflict, echo.Map{"error": "no stadium offers this activity for your unit"})
		case errors.Is(err, repository.ErrStadiumFull):
			return c.JSON(http.StatusConflict, echo.Map{"error": "no stadium has enough remaining capacity"})
		case errors.Is(err, repository.ErrCapacityConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "stadium capacity contended, try again"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "match already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create match failed"})
	}

	h.publishCreated(c, matchID, userID, req.ActivityType, stadiumName, players)

	return c.JSON(http.StatusCreated, echo.Map{"stadium": stadiumName})
}

// publishCreated fires the MatchCreated event. Broker failures are
// already logged by the publisher and never fail the request.
func (h *MatchHandler) publishCreated(c echo.Context, matchID string, userID uint64, activity, stadium string, players []string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_ = queue.PublishMatchCreated(ctx, queue.MatchCreatedEvent{
		MatchID:      matchID,
		InitiatorID:  userID,
		Username:     getUsername(c),
		ActivityType: activity,
		StadiumName:  stadium,
		Players:      players,
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
	})
}

// Delete cancels a match. Only the initiator may cancel.
func (h *MatchHandler) Delete(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	matchID := strings.TrimSpace(c.Param("id"))
	if matchID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "match id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	// Snapshot for the cancellation event before the record disappears.
	match, lookErr := h.Svc.FindByID(ctx, matchID)

	if err := h.Svc.DeleteMatch(ctx, userID, matchID); err != nil {
		switch {
		case errors.Is(err, repository.ErrMatchNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "match not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "only the initiator may cancel"})
		case errors.Is(err, repository.ErrCapacityConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "stadium capacity contended, try again"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete match failed"})
	}

	if lookErr == nil {
		evCtx, evCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer evCancel()
		_ = queue.PublishMatchCancelled(evCtx, queue.MatchCancelledEvent{
			MatchID:     matchID,
			InitiatorID: userID,
			StadiumName: match.StadiumName,
			Players:     len(match.Players),
			CancelledAt: time.Now().UTC().Format(time.RFC3339),
		})
	}

	return c.NoContent(http.StatusNoContent)
}

// MyMatch returns the authenticated user's most recent match.
func (h *MatchHandler) MyMatch(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	m, err := h.Svc.GetMatch(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrMatchNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no match found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toMatchResp(m))
}

// List returns every booked match.
func (h *MatchHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	matches, err := h.Svc.ListMatches(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]matchResp, 0, len(matches))
	for _, m := range matches {
		out = append(out, toMatchResp(m))
	}
	return c.JSON(http.StatusOK, echo.Map{"matches": out})
}

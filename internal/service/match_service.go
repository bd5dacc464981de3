// Package service implements the match lifecycle manager: it
// orchestrates match creation (id generation, allocation, cross-entity
// linkage) and cancellation (ownership check, capacity release,
// unlinking). All store access goes through the narrow interfaces
// below, injected at construction, so handlers stay thin and tests
// can substitute in-memory doubles.
package service

import (
	"context"
	"fmt"
	"log"

	"github.com/iliyamo/sports-match-booking/internal/model"
	"github.com/iliyamo/sports-match-booking/internal/repository"
	"github.com/iliyamo/sports-match-booking/internal/utils"
)

// UserStore is the slice of the user repository the lifecycle manager
// consumes. Credential fields of the returned user are never read
// here; only the unit and the ongoing-match linkage matter.
type UserStore interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
	SetOngoingMatch(ctx context.Context, userID uint64, matchID string) error
	ClearOngoingMatch(ctx context.Context, userID uint64) error
	AppendMatchHistory(ctx context.Context, userID uint64, matchID string) error
}

// MatchStore persists match records. *repository.MatchRepo satisfies it.
type MatchStore interface {
	Create(ctx context.Context, m *model.Match) error
	GetByMatchID(ctx context.Context, matchID string) (model.Match, error)
	GetByInitiator(ctx context.Context, initiatorID uint64) (model.Match, error)
	ListAll(ctx context.Context) ([]model.Match, error)
	Delete(ctx context.Context, matchID string) error
}

// CapacityReleaser returns reserved capacity to a stadium. It is the
// counterpart of the allocator's reserve and the only other way the
// occupied counter may move.
type CapacityReleaser interface {
	Release(ctx context.Context, stadiumName, matchID string, players int) error
}

// Allocator picks and reserves a stadium for a match request.
// *allocator.Allocator satisfies it.
type Allocator interface {
	Allocate(ctx context.Context, activityType, unit string, players int, matchID string) (string, error)
}

// MatchService orchestrates the match lifecycle. newID is swappable
// for tests and defaults to utils.NewMatchID.
type MatchService struct {
	users    UserStore
	matches  MatchStore
	stadiums CapacityReleaser
	alloc    Allocator
	newID    func() (string, error)
}

// NewMatchService constructs a MatchService. All dependencies must be
// non-nil.
func NewMatchService(users UserStore, matches MatchStore, stadiums CapacityReleaser, alloc Allocator) *MatchService {
	if users == nil || matches == nil || stadiums == nil || alloc == nil {
		panic("nil dependency passed to NewMatchService")
	}
	return &MatchService{
		users:    users,
		matches:  matches,
		stadiums: stadiums,
		alloc:    alloc,
		newID:    utils.NewMatchID,
	}
}

// CreateMatch creates a match for the initiator and returns the
// generated match id and the name of the stadium it was placed in.
// The sequence is: generate a match
// id, resolve the initiator (for their unit), allocate and reserve a
// stadium, persist the match record, then link it to the user
// (ongoing pointer plus history append).
//
// The three writes after allocation form a saga: if the match insert
// fails the reserved capacity is released, and if the user link fails
// the match is deleted and the capacity released, so a failed
// creation leaves no partial reservation behind. Compensation
// failures are logged and the original error is returned; the
// stadium's booked set is the source of truth for manual repair in
// that case.
func (s *MatchService) CreateMatch(ctx context.Context, initiatorID uint64, activityType string, participants []string) (string, string, error) {
	matchID, err := s.newID()
	if err != nil {
		return "", "", fmt.Errorf("generate match id: %w", err)
	}

	user, err := s.users.GetByID(ctx, initiatorID)
	if err != nil {
		return "", "", err
	}

	players := len(participants)
	stadiumName, err := s.alloc.Allocate(ctx, activityType, user.Unit, players, matchID)
	if err != nil {
		return "", "", err
	}

	match := &model.Match{
		MatchID:      matchID,
		InitiatorID:  initiatorID,
		ActivityType: activityType,
		Players:      participants,
		StadiumName:  stadiumName,
	}
	if err := s.matches.Create(ctx, match); err != nil {
		s.compensateRelease(ctx, stadiumName, matchID, players)
		return "", "", err
	}

	if err := s.linkUser(ctx, initiatorID, matchID); err != nil {
		if delErr := s.matches.Delete(ctx, matchID); delErr != nil {
			log.Printf("match-service: compensation delete of match %s failed: %v", matchID, delErr)
		}
		s.compensateRelease(ctx, stadiumName, matchID, players)
		return "", "", err
	}

	log.Printf("match-service: created match %s at %s for user %d (%d players)", matchID, stadiumName, initiatorID, players)
	return matchID, stadiumName, nil
}

func (s *MatchService) linkUser(ctx context.Context, userID uint64, matchID string) error {
	if err := s.users.SetOngoingMatch(ctx, userID, matchID); err != nil {
		return err
	}
	return s.users.AppendMatchHistory(ctx, userID, matchID)
}

func (s *MatchService) compensateRelease(ctx context.Context, stadiumName, matchID string, players int) {
	if err := s.stadiums.Release(ctx, stadiumName, matchID, players); err != nil {
		log.Printf("match-service: compensation release of match %s at %s failed: %v", matchID, stadiumName, err)
	}
}

// DeleteMatch cancels a match. Only the initiator may cancel; anyone
// else gets repository.ErrForbidden and nothing changes. The steps
// run in order — delete the match record, clear the initiator's
// ongoing pointer, release the stadium capacity — and the first
// failure aborts the rest. The match history is deliberately not
// pruned: cancellation is logical and the history is an audit trail.
func (s *MatchService) DeleteMatch(ctx context.Context, initiatorID uint64, matchID string) error {
	match, err := s.matches.GetByMatchID(ctx, matchID)
	if err != nil {
		return err
	}
	if match.InitiatorID != initiatorID {
		return repository.ErrForbidden
	}

	// Capture what release needs before the record disappears.
	players := len(match.Players)
	stadiumName := match.StadiumName

	if err := s.matches.Delete(ctx, matchID); err != nil {
		return err
	}
	if err := s.users.ClearOngoingMatch(ctx, initiatorID); err != nil {
		return err
	}
	if err := s.stadiums.Release(ctx, stadiumName, matchID, players); err != nil {
		return err
	}

	log.Printf("match-service: deleted match %s, released %d slots at %s", matchID, players, stadiumName)
	return nil
}

// FindByID looks up a single match by its public id.
func (s *MatchService) FindByID(ctx context.Context, matchID string) (model.Match, error) {
	return s.matches.GetByMatchID(ctx, matchID)
}

// GetMatch returns the match most recently created by the initiator.
func (s *MatchService) GetMatch(ctx context.Context, initiatorID uint64) (model.Match, error) {
	return s.matches.GetByInitiator(ctx, initiatorID)
}

// ListMatches returns all matches currently booked.
func (s *MatchService) ListMatches(ctx context.Context) ([]model.Match, error) {
	return s.matches.ListAll(ctx)
}

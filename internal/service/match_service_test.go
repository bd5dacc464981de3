package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/sports-match-booking/internal/allocator"
	"github.com/iliyamo/sports-match-booking/internal/model"
	"github.com/iliyamo/sports-match-booking/internal/repository"
)

// memStore is an in-memory double for every store interface the
// lifecycle manager touches, plus the allocator's StadiumStore. It
// mimics the repository semantics: sentinel errors, guarded capacity
// updates, append-only history.
type memStore struct {
	users    map[uint64]*model.User
	history  map[uint64][]string
	matches  map[string]*model.Match
	stadiums []model.Stadium

	failMatchCreate error // forced error on next match insert
	failSetOngoing  error // forced error on next ongoing-pointer update
}

func newMemStore() *memStore {
	return &memStore{
		users:   map[uint64]*model.User{},
		history: map[uint64][]string{},
		matches: map[string]*model.Match{},
	}
}

// ---- UserStore ----

func (m *memStore) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return model.User{}, repository.ErrUserNotFound
	}
	return *u, nil
}

func (m *memStore) SetOngoingMatch(_ context.Context, userID uint64, matchID string) error {
	if m.failSetOngoing != nil {
		err := m.failSetOngoing
		m.failSetOngoing = nil
		return err
	}
	u, ok := m.users[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	v := matchID
	u.OngoingMatchID = &v
	return nil
}

func (m *memStore) ClearOngoingMatch(_ context.Context, userID uint64) error {
	u, ok := m.users[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.OngoingMatchID = nil
	return nil
}

func (m *memStore) AppendMatchHistory(_ context.Context, userID uint64, matchID string) error {
	m.history[userID] = append(m.history[userID], matchID)
	return nil
}

// ---- MatchStore ----

func (m *memStore) Create(_ context.Context, match *model.Match) error {
	if m.failMatchCreate != nil {
		err := m.failMatchCreate
		m.failMatchCreate = nil
		return err
	}
	if _, exists := m.matches[match.MatchID]; exists {
		return repository.ErrConflict
	}
	cp := *match
	m.matches[match.MatchID] = &cp
	return nil
}

func (m *memStore) GetByMatchID(_ context.Context, matchID string) (model.Match, error) {
	match, ok := m.matches[matchID]
	if !ok {
		return model.Match{}, repository.ErrMatchNotFound
	}
	return *match, nil
}

func (m *memStore) GetByInitiator(_ context.Context, initiatorID uint64) (model.Match, error) {
	for _, match := range m.matches {
		if match.InitiatorID == initiatorID {
			return *match, nil
		}
	}
	return model.Match{}, repository.ErrMatchNotFound
}

func (m *memStore) ListAll(context.Context) ([]model.Match, error) {
	out := make([]model.Match, 0, len(m.matches))
	for _, match := range m.matches {
		out = append(out, *match)
	}
	return out, nil
}

func (m *memStore) Delete(_ context.Context, matchID string) error {
	if _, ok := m.matches[matchID]; !ok {
		return repository.ErrMatchNotFound
	}
	delete(m.matches, matchID)
	return nil
}

// ---- allocator.StadiumStore + CapacityReleaser ----

func (m *memStore) Candidates(_ context.Context, activityType, unit string) ([]model.Stadium, error) {
	out := make([]model.Stadium, 0)
	for _, s := range m.stadiums {
		if s.Unit != unit {
			continue
		}
		for _, a := range s.Activities {
			if a == activityType {
				out = append(out, s)
				break
			}
		}
	}
	return out, nil
}

func (m *memStore) Reserve(_ context.Context, stadiumID uint64, matchID string, players int, readOccupied uint32) error {
	for i := range m.stadiums {
		s := &m.stadiums[i]
		if s.ID != stadiumID {
			continue
		}
		if s.Occupied != readOccupied || s.MaxCapacity-s.Occupied < uint32(players) {
			return repository.ErrCapacityConflict
		}
		s.Occupied += uint32(players)
		s.MatchIDs = append(s.MatchIDs, matchID)
		return nil
	}
	return repository.ErrStadiumNotFound
}

func (m *memStore) Release(_ context.Context, stadiumName, matchID string, players int) error {
	for i := range m.stadiums {
		s := &m.stadiums[i]
		if s.Name != stadiumName {
			continue
		}
		if s.Occupied < uint32(players) {
			return repository.ErrCapacityConflict
		}
		s.Occupied -= uint32(players)
		kept := s.MatchIDs[:0]
		for _, id := range s.MatchIDs {
			if id != matchID {
				kept = append(kept, id)
			}
		}
		s.MatchIDs = kept
		return nil
	}
	return repository.ErrStadiumNotFound
}

func (m *memStore) stadium(name string) *model.Stadium {
	for i := range m.stadiums {
		if m.stadiums[i].Name == name {
			return &m.stadiums[i]
		}
	}
	return nil
}

func newService(store *memStore) *MatchService {
	svc := NewMatchService(store, store, store, allocator.New(store))
	n := 0
	svc.newID = func() (string, error) {
		n++
		return fmt.Sprintf("%048d", n), nil
	}
	return svc
}

func seed(store *memStore) {
	store.users[1] = &model.User{ID: 1, Username: "kim", Unit: "7th"}
	store.users[2] = &model.User{ID: 2, Username: "ahn", Unit: "7th"}
	store.stadiums = []model.Stadium{
		{ID: 1, Name: "alpha", Unit: "7th", MaxCapacity: 10, Occupied: 8, Activities: []string{"soccer"}},
		{ID: 2, Name: "bravo", Unit: "7th", MaxCapacity: 20, Occupied: 15, Activities: []string{"soccer"}},
	}
}

func TestCreateMatchLinksAllThreeEntities(t *testing.T) {
	store := newMemStore()
	seed(store)
	svc := newService(store)

	matchID, stadium, err := svc.CreateMatch(context.Background(), 1, "soccer", []string{"kim", "lee"})
	require.NoError(t, err)
	assert.Equal(t, "alpha", stadium) // exact fit beats the roomier bravo
	assert.Len(t, matchID, 48)

	// Stadium side: capacity reserved, match booked under the returned id.
	assert.Equal(t, uint32(10), store.stadium("alpha").Occupied)
	require.Len(t, store.stadium("alpha").MatchIDs, 1)
	assert.Equal(t, matchID, store.stadium("alpha").MatchIDs[0])

	// Match side: record persisted with the resolved stadium.
	match, err := svc.GetMatch(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, matchID, match.MatchID)
	assert.Equal(t, "alpha", match.StadiumName)
	assert.Equal(t, []string{"kim", "lee"}, match.Players)

	// User side: ongoing pointer set and history appended.
	user, err := store.GetByID(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, user.OngoingMatchID)
	assert.Equal(t, matchID, *user.OngoingMatchID)
	assert.Equal(t, []string{matchID}, store.history[1])
}

func TestCreateMatchUnknownUser(t *testing.T) {
	store := newMemStore()
	seed(store)
	svc := newService(store)

	_, _, err := svc.CreateMatch(context.Background(), 99, "soccer", []string{"x", "y"})
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
	assert.Equal(t, uint32(8), store.stadium("alpha").Occupied)
	assert.Empty(t, store.matches)
}

func TestCreateMatchGroupTooLargeLeavesStateUntouched(t *testing.T) {
	store := newMemStore()
	seed(store)
	svc := newService(store)

	// Remaining capacities are 2 (alpha) and 5 (bravo); 6 players fit nowhere.
	_, _, err := svc.CreateMatch(context.Background(), 1, "soccer", []string{"a", "b", "c", "d", "e", "f"})
	assert.ErrorIs(t, err, repository.ErrStadiumFull)
	assert.Equal(t, uint32(8), store.stadium("alpha").Occupied)
	assert.Equal(t, uint32(15), store.stadium("bravo").Occupied)
	assert.Empty(t, store.matches)
	user, _ := store.GetByID(context.Background(), 1)
	assert.Nil(t, user.OngoingMatchID)
}

func TestCreateMatchCompensatesWhenInsertFails(t *testing.T) {
	store := newMemStore()
	seed(store)
	store.failMatchCreate = repository.ErrConflict
	svc := newService(store)

	_, _, err := svc.CreateMatch(context.Background(), 1, "soccer", []string{"a", "b"})
	assert.ErrorIs(t, err, repository.ErrConflict)

	// The reserved capacity must have been released again.
	assert.Equal(t, uint32(8), store.stadium("alpha").Occupied)
	assert.Empty(t, store.stadium("alpha").MatchIDs)
	assert.Empty(t, store.matches)
}

func TestCreateMatchCompensatesWhenUserLinkFails(t *testing.T) {
	store := newMemStore()
	seed(store)
	linkErr := errors.New("users table unavailable")
	store.failSetOngoing = linkErr
	svc := newService(store)

	_, _, err := svc.CreateMatch(context.Background(), 1, "soccer", []string{"a", "b"})
	assert.ErrorIs(t, err, linkErr)

	// Match deleted and capacity released: no half-created match remains.
	assert.Empty(t, store.matches)
	assert.Equal(t, uint32(8), store.stadium("alpha").Occupied)
	assert.Empty(t, store.stadium("alpha").MatchIDs)
}

func TestDeleteMatchRestoresPreCreationState(t *testing.T) {
	store := newMemStore()
	seed(store)
	svc := newService(store)

	_, _, err := svc.CreateMatch(context.Background(), 1, "soccer", []string{"a", "b"})
	require.NoError(t, err)
	matchID := store.stadium("alpha").MatchIDs[0]

	require.NoError(t, svc.DeleteMatch(context.Background(), 1, matchID))

	// Stadium back to its pre-creation counters and booked set.
	assert.Equal(t, uint32(8), store.stadium("alpha").Occupied)
	assert.Empty(t, store.stadium("alpha").MatchIDs)

	// Ongoing pointer cleared but the audit trail keeps the id.
	user, _ := store.GetByID(context.Background(), 1)
	assert.Nil(t, user.OngoingMatchID)
	assert.Equal(t, []string{matchID}, store.history[1])

	_, err = svc.GetMatch(context.Background(), 1)
	assert.ErrorIs(t, err, repository.ErrMatchNotFound)
}

func TestDeleteMatchByNonInitiatorIsForbidden(t *testing.T) {
	store := newMemStore()
	seed(store)
	svc := newService(store)

	_, _, err := svc.CreateMatch(context.Background(), 1, "soccer", []string{"a", "b"})
	require.NoError(t, err)
	matchID := store.stadium("alpha").MatchIDs[0]

	err = svc.DeleteMatch(context.Background(), 2, matchID)
	assert.ErrorIs(t, err, repository.ErrForbidden)

	// Nothing moved: match present, capacity still reserved, owner still linked.
	assert.Equal(t, uint32(10), store.stadium("alpha").Occupied)
	_, err = store.GetByMatchID(context.Background(), matchID)
	assert.NoError(t, err)
	user, _ := store.GetByID(context.Background(), 1)
	require.NotNil(t, user.OngoingMatchID)
	assert.Equal(t, matchID, *user.OngoingMatchID)
}

func TestDeleteUnknownMatch(t *testing.T) {
	store := newMemStore()
	seed(store)
	svc := newService(store)

	err := svc.DeleteMatch(context.Background(), 1, "does-not-exist")
	assert.ErrorIs(t, err, repository.ErrMatchNotFound)
}

func TestCreateDeleteSequenceKeepsOccupancyInBounds(t *testing.T) {
	store := newMemStore()
	seed(store)
	svc := newService(store)

	check := func() {
		for _, s := range store.stadiums {
			assert.LessOrEqual(t, s.Occupied, s.MaxCapacity)
			assert.GreaterOrEqual(t, int64(s.Occupied), int64(0))
		}
	}

	for i := 0; i < 4; i++ {
		_, stadium, err := svc.CreateMatch(context.Background(), 1, "soccer", []string{"a", "b"})
		check()
		if err != nil {
			assert.ErrorIs(t, err, repository.ErrStadiumFull)
			break
		}
		var s = store.stadium(stadium)
		matchID := s.MatchIDs[len(s.MatchIDs)-1]
		require.NoError(t, svc.DeleteMatch(context.Background(), 1, matchID))
		check()
	}

	assert.Equal(t, uint32(8), store.stadium("alpha").Occupied)
	assert.Equal(t, uint32(15), store.stadium("bravo").Occupied)
}

func TestListMatches(t *testing.T) {
	store := newMemStore()
	seed(store)
	svc := newService(store)

	_, _, err := svc.CreateMatch(context.Background(), 1, "soccer", []string{"a", "b"})
	require.NoError(t, err)
	_, _, err = svc.CreateMatch(context.Background(), 2, "soccer", []string{"c", "d", "e"})
	require.NoError(t, err)

	matches, err := svc.ListMatches(context.Background())
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

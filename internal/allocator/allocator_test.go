package allocator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/sports-match-booking/internal/model"
	"github.com/iliyamo/sports-match-booking/internal/repository"
)

// fakeStadiumStore keeps stadiums in a slice (insertion order) and
// applies the same guarded-reserve semantics as the MySQL repo.
type fakeStadiumStore struct {
	stadiums []model.Stadium
	// failReserveOnce makes the next Reserve lose the CAS, simulating
	// a concurrent allocation moving the counter between read and write.
	failReserveOnce bool
	reserveCalls    int
}

func (f *fakeStadiumStore) Candidates(_ context.Context, activityType, unit string) ([]model.Stadium, error) {
	out := make([]model.Stadium, 0)
	for _, s := range f.stadiums {
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

func (f *fakeStadiumStore) Reserve(_ context.Context, stadiumID uint64, matchID string, players int, readOccupied uint32) error {
	f.reserveCalls++
	if f.failReserveOnce {
		f.failReserveOnce = false
		return repository.ErrCapacityConflict
	}
	for i := range f.stadiums {
		s := &f.stadiums[i]
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

func (f *fakeStadiumStore) byName(name string) *model.Stadium {
	for i := range f.stadiums {
		if f.stadiums[i].Name == name {
			return &f.stadiums[i]
		}
	}
	return nil
}

func twoStadiums() *fakeStadiumStore {
	return &fakeStadiumStore{stadiums: []model.Stadium{
		{ID: 1, Name: "alpha", Unit: "7th", MaxCapacity: 10, Occupied: 8, Activities: []string{"soccer"}},
		{ID: 2, Name: "bravo", Unit: "7th", MaxCapacity: 20, Occupied: 15, Activities: []string{"soccer"}},
	}}
}

func TestAllocatePrefersTightestFit(t *testing.T) {
	// alpha has 2 remaining, bravo has 5; a group of 2 must take the
	// exact fit and fill alpha completely.
	store := twoStadiums()
	a := New(store)

	name, err := a.Allocate(context.Background(), "soccer", "7th", 2, "m1")
	require.NoError(t, err)
	assert.Equal(t, "alpha", name)
	assert.Equal(t, uint32(10), store.byName("alpha").Occupied)
	assert.Equal(t, uint32(15), store.byName("bravo").Occupied)
	assert.Equal(t, []string{"m1"}, store.byName("alpha").MatchIDs)
}

func TestAllocateFallsBackToLargerStadium(t *testing.T) {
	store := twoStadiums()
	a := New(store)

	name, err := a.Allocate(context.Background(), "soccer", "7th", 4, "m1")
	require.NoError(t, err)
	assert.Equal(t, "bravo", name)
	assert.Equal(t, uint32(8), store.byName("alpha").Occupied)
	assert.Equal(t, uint32(19), store.byName("bravo").Occupied)
}

func TestAllocateNoMatchingStadium(t *testing.T) {
	store := twoStadiums()
	a := New(store)

	_, err := a.Allocate(context.Background(), "basketball", "7th", 2, "m1")
	assert.ErrorIs(t, err, repository.ErrNoMatchingStadium)

	_, err = a.Allocate(context.Background(), "soccer", "9th", 2, "m1")
	assert.ErrorIs(t, err, repository.ErrNoMatchingStadium)
}

func TestAllocateAllCandidatesTooSmall(t *testing.T) {
	// Remaining capacities are 2 and 5; a group of 6 fits nowhere and
	// must not change any counter.
	store := twoStadiums()
	a := New(store)

	_, err := a.Allocate(context.Background(), "soccer", "7th", 6, "m1")
	assert.ErrorIs(t, err, repository.ErrStadiumFull)
	assert.Equal(t, uint32(8), store.byName("alpha").Occupied)
	assert.Equal(t, uint32(15), store.byName("bravo").Occupied)
	assert.Empty(t, store.byName("alpha").MatchIDs)
}

func TestAllocateTieBreakIsStoreOrder(t *testing.T) {
	store := &fakeStadiumStore{stadiums: []model.Stadium{
		{ID: 1, Name: "first", Unit: "7th", MaxCapacity: 10, Occupied: 5, Activities: []string{"soccer"}},
		{ID: 2, Name: "second", Unit: "7th", MaxCapacity: 8, Occupied: 3, Activities: []string{"soccer"}},
	}}
	a := New(store)

	// Equal remaining capacity (5 each): the first in store order wins,
	// and it wins every time the state is identical.
	name, err := a.Allocate(context.Background(), "soccer", "7th", 3, "m1")
	require.NoError(t, err)
	assert.Equal(t, "first", name)

	store2 := &fakeStadiumStore{stadiums: []model.Stadium{
		{ID: 1, Name: "first", Unit: "7th", MaxCapacity: 10, Occupied: 5, Activities: []string{"soccer"}},
		{ID: 2, Name: "second", Unit: "7th", MaxCapacity: 8, Occupied: 3, Activities: []string{"soccer"}},
	}}
	name2, err := New(store2).Allocate(context.Background(), "soccer", "7th", 3, "m1")
	require.NoError(t, err)
	assert.Equal(t, name, name2)
}

func TestAllocateRetriesAfterReserveConflict(t *testing.T) {
	store := twoStadiums()
	store.failReserveOnce = true
	a := New(store)

	name, err := a.Allocate(context.Background(), "soccer", "7th", 2, "m1")
	require.NoError(t, err)
	assert.Equal(t, "alpha", name)
	assert.Equal(t, 2, store.reserveCalls)
}

func TestAllocateGivesUpAfterRepeatedConflicts(t *testing.T) {
	store := &alwaysConflictStore{inner: twoStadiums()}
	a := New(store)

	_, err := a.Allocate(context.Background(), "soccer", "7th", 2, "m1")
	assert.ErrorIs(t, err, repository.ErrCapacityConflict)
	assert.Equal(t, maxAttempts, store.reserves)
}

func TestAllocateOccupancyStaysWithinBounds(t *testing.T) {
	// Sequential allocations until full: occupied never exceeds max and
	// the full stadium rejects the next group.
	store := &fakeStadiumStore{stadiums: []model.Stadium{
		{ID: 1, Name: "alpha", Unit: "7th", MaxCapacity: 6, Occupied: 0, Activities: []string{"futsal"}},
	}}
	a := New(store)

	for i := 0; i < 3; i++ {
		_, err := a.Allocate(context.Background(), "futsal", "7th", 2, "m")
		require.NoError(t, err)
	}
	assert.Equal(t, uint32(6), store.byName("alpha").Occupied)

	_, err := a.Allocate(context.Background(), "futsal", "7th", 2, "m")
	assert.ErrorIs(t, err, repository.ErrStadiumFull)
	assert.Equal(t, uint32(6), store.byName("alpha").Occupied)
}

// alwaysConflictStore reports a capacity conflict on every reserve,
// as if the caller kept losing the race.
type alwaysConflictStore struct {
	inner    *fakeStadiumStore
	reserves int
}

func (s *alwaysConflictStore) Candidates(ctx context.Context, activityType, unit string) ([]model.Stadium, error) {
	return s.inner.Candidates(ctx, activityType, unit)
}

func (s *alwaysConflictStore) Reserve(context.Context, uint64, string, int, uint32) error {
	s.reserves++
	return repository.ErrCapacityConflict
}

func TestAllocatePropagatesStoreErrors(t *testing.T) {
	boom := errors.New("connection reset")
	a := New(&erroringStore{err: boom})
	_, err := a.Allocate(context.Background(), "soccer", "7th", 2, "m1")
	assert.ErrorIs(t, err, boom)
}

type erroringStore struct{ err error }

func (s *erroringStore) Candidates(context.Context, string, string) ([]model.Stadium, error) {
	return nil, s.err
}

func (s *erroringStore) Reserve(context.Context, uint64, string, int, uint32) error {
	return s.err
}

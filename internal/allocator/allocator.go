// Package allocator selects a stadium for a new match and reserves
// capacity on it. Selection is best-fit-by-scarcity: among the
// stadiums of the initiator's unit that support the requested
// activity, candidates are ranked ascending by remaining capacity and
// the first one that can hold the whole group wins. Small matches
// therefore pack into tight venues while large venues stay free for
// large groups.
package allocator

import (
	"context"
	"errors"
	"sort"

	"github.com/iliyamo/sports-match-booking/internal/model"
	"github.com/iliyamo/sports-match-booking/internal/repository"
)

// StadiumStore is the slice of the stadium repository the allocator
// needs: a candidate query and the guarded reserve. *repository.StadiumRepo
// satisfies it; tests substitute an in-memory fake.
type StadiumStore interface {
	// Candidates returns stadiums supporting activityType within unit,
	// in a stable store order (insertion order).
	Candidates(ctx context.Context, activityType, unit string) ([]model.Stadium, error)
	// Reserve claims players slots on the stadium and records matchID
	// in its booked set, guarded by the occupied value the caller read.
	// It returns repository.ErrCapacityConflict when the guard fails.
	Reserve(ctx context.Context, stadiumID uint64, matchID string, players int, readOccupied uint32) error
}

// maxAttempts bounds the re-read/re-rank loop when a guarded reserve
// loses a race. Each attempt works from a fresh snapshot, so under
// contention the allocator converges instead of overbooking.
const maxAttempts = 3

// Allocator picks and reserves a stadium for one match request.
type Allocator struct {
	stadiums StadiumStore
}

// New returns an Allocator over the given stadium store.
func New(stadiums StadiumStore) *Allocator {
	return &Allocator{stadiums: stadiums}
}

// Allocate finds a stadium for a match of the given activity type and
// unit with players participants, reserves the capacity and returns
// the stadium name.
//
// Failure modes:
//   - repository.ErrNoMatchingStadium when no stadium supports the
//     activity within the unit,
//   - repository.ErrStadiumFull when candidates exist but none has
//     enough remaining capacity (capacities are left unchanged),
//   - repository.ErrCapacityConflict when every attempt lost the
//     reserve race against concurrent allocations.
//
// Neither failure is retried beyond the bounded conflict loop; the
// caller reports the reason and stops.
func (a *Allocator) Allocate(ctx context.Context, activityType, unit string, players int, matchID string) (string, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		candidates, err := a.stadiums.Candidates(ctx, activityType, unit)
		if err != nil {
			return "", err
		}
		if len(candidates) == 0 {
			return "", repository.ErrNoMatchingStadium
		}

		// Rank ascending by remaining capacity. The stable sort keeps
		// the store's insertion order for ties, which makes repeated
		// identical requests against identical state deterministic.
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].Remaining() < candidates[j].Remaining()
		})

		conflict := false
		for _, s := range candidates {
			if int(s.Remaining()) < players {
				continue
			}
			err := a.stadiums.Reserve(ctx, s.ID, matchID, players, s.Occupied)
			if err == nil {
				return s.Name, nil
			}
			if errors.Is(err, repository.ErrCapacityConflict) {
				// Someone moved this stadium's counter since our read.
				// The whole ranking may be stale; re-read and re-rank.
				conflict = true
				break
			}
			return "", err
		}
		if !conflict {
			// Candidates existed but none could fit the group.
			return "", repository.ErrStadiumFull
		}
	}
	return "", repository.ErrCapacityConflict
}

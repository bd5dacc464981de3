package model

import "time"

// Stadium represents a venue that can host matches, as stored in
// the `stadiums` table. Capacity is tracked as a pair of counters:
// MaxCapacity is fixed at registration time while Occupied moves up
// and down as matches reserve and release player slots. Occupied is
// only ever mutated through the stadium repository's Reserve and
// Release operations, which guard the 0 <= occupied <= max invariant
// at the database level.
//
// The set of supported activities lives in the stadium_activities
// table and the set of match ids currently booked here lives in
// stadium_matches; both are loaded into the slices below when a full
// stadium view is requested.
//
// Fields:
//  ID          – primary key identifier.
//  Name        – unique stadium name.
//  Unit        – organizational unit that owns the stadium.
//  MaxCapacity – fixed maximum number of players.
//  Occupied    – players currently reserved across booked matches.
//  Activities  – supported activity types (stadium_activities rows).
//  MatchIDs    – match ids currently booked (stadium_matches rows).
//  CreatedAt   – timestamp of creation.
//  UpdatedAt   – timestamp of last update.
type Stadium struct {
	ID          uint64    // stadiums.id
	Name        string    // stadiums.name
	Unit        string    // stadiums.unit
	MaxCapacity uint32    // stadiums.max_capacity
	Occupied    uint32    // stadiums.occupied
	Activities  []string  // stadium_activities.activity
	MatchIDs    []string  // stadium_matches.match_id
	CreatedAt   time.Time // stadiums.created_at
	UpdatedAt   time.Time // stadiums.updated_at
}

// Remaining returns the free capacity of the stadium. The allocator
// ranks candidates ascending on this value so that small groups pack
// into tight venues and large venues stay free for large groups.
func (s Stadium) Remaining() uint32 {
	if s.Occupied > s.MaxCapacity {
		return 0
	}
	return s.MaxCapacity - s.Occupied
}

package model

import "time"

// Match records a scheduled occupation of stadium capacity by a
// group of players for one activity, as stored in the `matches`
// table. The MatchID is an opaque 48-character hex string generated
// at creation; the numeric ID is only the storage primary key.
// StadiumName is resolved by the allocator when the match is created
// and never changes afterwards. A match row exists only while
// capacity is reserved for it: creation reserves, deletion releases.
//
// Fields:
//  ID           – primary key identifier.
//  MatchID      – unique opaque match identifier.
//  InitiatorID  – user who created the match.
//  ActivityType – activity being played (e.g. "soccer").
//  Players      – ordered participant names (match_players rows).
//  StadiumName  – stadium hosting the match.
//  StartAt      – creation timestamp.
type Match struct {
	ID           uint64    // matches.id
	MatchID      string    // matches.match_id
	InitiatorID  uint64    // matches.initiator_id
	ActivityType string    // matches.activity_type
	Players      []string  // match_players.player ordered by position
	StadiumName  string    // matches.stadium_name
	StartAt      time.Time // matches.start_at
}

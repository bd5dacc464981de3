// Package queue defines the match lifecycle events exchanged over the
// message broker, plus the publisher and the background consumer.
package queue

// MatchCreatedEvent is published after a match has been created and
// linked. It carries enough context for downstream consumers to log or
// notify without querying the primary database.
type MatchCreatedEvent struct {
	MatchID      string   `json:"match_id"`
	InitiatorID  uint64   `json:"initiator_id"`
	Username     string   `json:"username"`
	ActivityType string   `json:"activity_type"`
	StadiumName  string   `json:"stadium_name"`
	Players      []string `json:"players"`
	CreatedAt    string   `json:"created_at"`
}

// MatchCancelledEvent is published after a match has been cancelled
// and its capacity returned to the stadium.
type MatchCancelledEvent struct {
	MatchID     string `json:"match_id"`
	InitiatorID uint64 `json:"initiator_id"`
	StadiumName string `json:"stadium_name"`
	Players     int    `json:"players"`
	CancelledAt string `json:"cancelled_at"`
}

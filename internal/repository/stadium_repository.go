package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/sports-match-booking/internal/model"
)

// StadiumRepo provides access to the stadiums table and its two
// satellite tables: stadium_activities (supported activity types) and
// stadium_matches (match ids currently booked). The occupied counter
// is the only shared mutable resource in the system and is mutated
// exclusively through Reserve and Release below; both guard their
// UPDATE so that occupied can never leave [0, max_capacity] no matter
// how many callers race on the same row.
type StadiumRepo struct {
	db *sql.DB
}

// NewStadiumRepo returns a new StadiumRepo bound to the given database.
func NewStadiumRepo(db *sql.DB) *StadiumRepo { return &StadiumRepo{db: db} }

// Create inserts a stadium together with its supported activities in
// one transaction. A duplicate name maps to ErrConflict.
func (r *StadiumRepo) Create(ctx context.Context, s *model.Stadium) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	res, err := tx.ExecContext(ctx,
		"INSERT INTO stadiums (name, unit, max_capacity, occupied) VALUES (?,?,?,0)",
		s.Name, s.Unit, s.MaxCapacity)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	s.Occupied = 0
	if len(s.Activities) > 0 {
		query := "INSERT INTO stadium_activities (stadium_id, activity) VALUES "
		args := make([]interface{}, 0, len(s.Activities)*2)
		for i, a := range s.Activities {
			if i > 0 {
				query += ","
			}
			query += "(?, ?)"
			args = append(args, s.ID, a)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Candidates returns stadiums of the given unit that support the
// given activity type, in insertion order. Insertion order is the
// store-natural secondary key the allocator relies on for
// deterministic tie-breaking, so the ORDER BY here is load-bearing.
func (r *StadiumRepo) Candidates(ctx context.Context, activityType, unit string) ([]model.Stadium, error) {
	const q = `SELECT s.id, s.name, s.unit, s.max_capacity, s.occupied
	           FROM stadiums s
	           JOIN stadium_activities a ON a.stadium_id = s.id
	           WHERE a.activity = ? AND s.unit = ?
	           ORDER BY s.id ASC`
	rows, err := r.db.QueryContext(ctx, q, activityType, unit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Stadium, 0)
	for rows.Next() {
		var s model.Stadium
		if err := rows.Scan(&s.ID, &s.Name, &s.Unit, &s.MaxCapacity, &s.Occupied); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Reserve atomically claims capacity for a match on one stadium. The
// UPDATE is guarded twice: occupied must still equal the value the
// allocator read (compare-and-swap, so two concurrent reservations
// cannot both apply against the same snapshot) and the remaining
// capacity must still cover the group. When the guard fails no row is
// touched and ErrCapacityConflict is returned so the allocator can
// re-read and retry. The booked-set insert rides in the same
// transaction, keeping occupied equal to the player sum of the
// booked matches.
func (r *StadiumRepo) Reserve(ctx context.Context, stadiumID uint64, matchID string, players int, readOccupied uint32) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	res, err := tx.ExecContext(ctx,
		`UPDATE stadiums SET occupied = occupied + ?
		 WHERE id = ? AND occupied = ? AND max_capacity - occupied >= ?`,
		players, stadiumID, readOccupied, players)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCapacityConflict
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO stadium_matches (stadium_id, match_id) VALUES (?,?)",
		stadiumID, matchID); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrConflict
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Release returns a match's capacity to its stadium: the booked-set
// row is removed and occupied is decremented by the recorded player
// count. The decrement is guarded so occupied never drops below zero;
// a failed guard means the books are already off and is reported as
// ErrCapacityConflict rather than silently clamped.
func (r *StadiumRepo) Release(ctx context.Context, stadiumName, matchID string, players int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx,
		`DELETE sm FROM stadium_matches sm
		 JOIN stadiums s ON s.id = sm.stadium_id
		 WHERE s.name = ? AND sm.match_id = ?`,
		stadiumName, matchID); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx,
		"UPDATE stadiums SET occupied = occupied - ? WHERE name = ? AND occupied >= ?",
		players, stadiumName, players)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCapacityConflict
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByName loads one stadium including its activity set and booked
// match ids. ErrStadiumNotFound is returned when the name is unknown.
func (r *StadiumRepo) GetByName(ctx context.Context, name string) (model.Stadium, error) {
	var s model.Stadium
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, unit, max_capacity, occupied, created_at, updated_at FROM stadiums WHERE name=? LIMIT 1",
		name).Scan(&s.ID, &s.Name, &s.Unit, &s.MaxCapacity, &s.Occupied, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Stadium{}, ErrStadiumNotFound
		}
		return model.Stadium{}, err
	}
	list := []model.Stadium{s}
	if err := r.attachSets(ctx, list); err != nil {
		return model.Stadium{}, err
	}
	return list[0], nil
}

// ListAll returns every stadium with activities and booked match ids
// populated. Stadiums are ordered by insertion.
func (r *StadiumRepo) ListAll(ctx context.Context) ([]model.Stadium, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, unit, max_capacity, occupied, created_at, updated_at FROM stadiums ORDER BY id ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Stadium, 0)
	for rows.Next() {
		var s model.Stadium
		if err := rows.Scan(&s.ID, &s.Name, &s.Unit, &s.MaxCapacity, &s.Occupied, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}
	if err := r.attachSets(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// attachSets populates Activities and MatchIDs for the given stadiums
// with one query per satellite table, joined back through an index
// map keyed by stadium id.
func (r *StadiumRepo) attachSets(ctx context.Context, stadiums []model.Stadium) error {
	ids := make([]interface{}, 0, len(stadiums))
	placeholders := make([]string, 0, len(stadiums))
	index := make(map[uint64]int, len(stadiums))
	for i, s := range stadiums {
		ids = append(ids, s.ID)
		placeholders = append(placeholders, "?")
		index[s.ID] = i
		stadiums[i].Activities = []string{}
		stadiums[i].MatchIDs = []string{}
	}
	in := strings.Join(placeholders, ",")

	arows, err := r.db.QueryContext(ctx,
		"SELECT stadium_id, activity FROM stadium_activities WHERE stadium_id IN ("+in+") ORDER BY stadium_id, activity",
		ids...)
	if err != nil {
		return err
	}
	defer arows.Close()
	for arows.Next() {
		var sid uint64
		var activity string
		if err := arows.Scan(&sid, &activity); err != nil {
			return err
		}
		if i, ok := index[sid]; ok {
			stadiums[i].Activities = append(stadiums[i].Activities, activity)
		}
	}
	if err := arows.Err(); err != nil {
		return err
	}

	mrows, err := r.db.QueryContext(ctx,
		"SELECT stadium_id, match_id FROM stadium_matches WHERE stadium_id IN ("+in+") ORDER BY id ASC",
		ids...)
	if err != nil {
		return err
	}
	defer mrows.Close()
	for mrows.Next() {
		var sid uint64
		var matchID string
		if err := mrows.Scan(&sid, &matchID); err != nil {
			return err
		}
		if i, ok := index[sid]; ok {
			stadiums[i].MatchIDs = append(stadiums[i].MatchIDs, matchID)
		}
	}
	return mrows.Err()
}

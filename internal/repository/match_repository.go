package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/sports-match-booking/internal/model"
)

// MatchRepo provides access to the matches table and the ordered
// match_players list. Matches are only ever inserted by the lifecycle
// manager after the allocator has reserved capacity, and only ever
// deleted through the cancellation protocol, so every row here has a
// corresponding reservation on some stadium.
type MatchRepo struct {
	db *sql.DB
}

// NewMatchRepo returns a new MatchRepo bound to the given database.
func NewMatchRepo(db *sql.DB) *MatchRepo { return &MatchRepo{db: db} }

// Create inserts a match and its participant list in one
// transaction. The generated primary key and the stored start
// timestamp are populated on the passed record. A duplicate match id
// maps to ErrConflict; the unique key on matches.match_id is the
// enforcement boundary for generated-id collisions.
func (r *MatchRepo) Create(ctx context.Context, m *model.Match) error {
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
		"INSERT INTO matches (match_id, initiator_id, activity_type, stadium_name) VALUES (?,?,?,?)",
		m.MatchID, m.InitiatorID, m.ActivityType, m.StadiumName)
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
	m.ID = uint64(id)
	if len(m.Players) > 0 {
		query := "INSERT INTO match_players (match_id, position, player) VALUES "
		args := make([]interface{}, 0, len(m.Players)*3)
		for i, p := range m.Players {
			if i > 0 {
				query += ","
			}
			query += "(?, ?, ?)"
			args = append(args, m.MatchID, i, p)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	// Read back the stored timestamp so callers see what the row says.
	if err := tx.QueryRowContext(ctx,
		"SELECT start_at FROM matches WHERE id = ?", m.ID).Scan(&m.StartAt); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByMatchID loads one match with its ordered participant list.
func (r *MatchRepo) GetByMatchID(ctx context.Context, matchID string) (model.Match, error) {
	m, err := r.scanOne(r.db.QueryRowContext(ctx,
		"SELECT id, match_id, initiator_id, activity_type, stadium_name, start_at FROM matches WHERE match_id=? LIMIT 1",
		matchID))
	if err != nil {
		return model.Match{}, err
	}
	if m.Players, err = r.players(ctx, m.MatchID); err != nil {
		return model.Match{}, err
	}
	return m, nil
}

// GetByInitiator loads the match most recently created by the given
// user. A user has at most one ongoing match, so at most one live row
// matches; the ordering only matters transiently during cancellation.
func (r *MatchRepo) GetByInitiator(ctx context.Context, initiatorID uint64) (model.Match, error) {
	m, err := r.scanOne(r.db.QueryRowContext(ctx,
		"SELECT id, match_id, initiator_id, activity_type, stadium_name, start_at FROM matches WHERE initiator_id=? ORDER BY id DESC LIMIT 1",
		initiatorID))
	if err != nil {
		return model.Match{}, err
	}
	if m.Players, err = r.players(ctx, m.MatchID); err != nil {
		return model.Match{}, err
	}
	return m, nil
}

// ListAll returns every match with participants populated, newest
// first.
func (r *MatchRepo) ListAll(ctx context.Context) ([]model.Match, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, match_id, initiator_id, activity_type, stadium_name, start_at FROM matches ORDER BY id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Match, 0)
	index := make(map[string]int)
	for rows.Next() {
		var m model.Match
		if err := rows.Scan(&m.ID, &m.MatchID, &m.InitiatorID, &m.ActivityType, &m.StadiumName, &m.StartAt); err != nil {
			return nil, err
		}
		m.Players = []string{}
		index[m.MatchID] = len(out)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}
	// Populate players for all matches in a single query.
	ids := make([]interface{}, 0, len(out))
	placeholders := make([]string, 0, len(out))
	for _, m := range out {
		ids = append(ids, m.MatchID)
		placeholders = append(placeholders, "?")
	}
	q := "SELECT match_id, player FROM match_players WHERE match_id IN (" +
		strings.Join(placeholders, ",") + ") ORDER BY match_id, position"
	prows, err := r.db.QueryContext(ctx, q, ids...)
	if err != nil {
		return nil, err
	}
	defer prows.Close()
	for prows.Next() {
		var matchID, player string
		if err := prows.Scan(&matchID, &player); err != nil {
			return nil, err
		}
		if i, ok := index[matchID]; ok {
			out[i].Players = append(out[i].Players, player)
		}
	}
	if err := prows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a match row; match_players rows cascade via FK.
func (r *MatchRepo) Delete(ctx context.Context, matchID string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM matches WHERE match_id=?", matchID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrMatchNotFound
	}
	return nil
}

func (r *MatchRepo) scanOne(row *sql.Row) (model.Match, error) {
	var m model.Match
	err := row.Scan(&m.ID, &m.MatchID, &m.InitiatorID, &m.ActivityType, &m.StadiumName, &m.StartAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Match{}, ErrMatchNotFound
		}
		return model.Match{}, err
	}
	return m, nil
}

func (r *MatchRepo) players(ctx context.Context, matchID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT player FROM match_players WHERE match_id=? ORDER BY position ASC", matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	players := make([]string, 0)
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return players, nil
}

package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/sports-match-booking/internal/model"
	"github.com/iliyamo/sports-match-booking/internal/utils"
)

// UserRepo provides access to the 'users' and 'user_match_history'
// tables. Credential material is written here once at registration and
// read only by the auth handlers; the match service consumes users
// solely for their unit and ongoing-match linkage.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user and returns its ID.
func (r *UserRepo) Create(ctx context.Context, username, password, role, unit string, rank uint32, cost int) (uint64, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, password_hash, role, `rank`, unit) VALUES (?,?,?,?,?)",
		username, hash, role, rank, unit)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrConflict
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByUsername fetches a user by normalized username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT id,username,password_hash,role,`rank`,unit,ongoing_match_id,is_active,created_at,updated_at FROM users WHERE username=? LIMIT 1",
		username))
}

// GetByID fetches a user by id. It returns ErrUserNotFound when no
// row exists so callers never need to compare against sql.ErrNoRows.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT id,username,password_hash,role,`rank`,unit,ongoing_match_id,is_active,created_at,updated_at FROM users WHERE id=? LIMIT 1",
		id))
}

func (r *UserRepo) scanOne(row *sql.Row) (model.User, error) {
	var (
		u       model.User
		ongoing sql.NullString
	)
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.Rank, &u.Unit,
		&ongoing, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, err
	}
	if ongoing.Valid {
		v := ongoing.String
		u.OngoingMatchID = &v
	}
	return u, nil
}

// SetOngoingMatch points the user's ongoing-match reference at the
// given match id. The previous value, if any, is overwritten.
func (r *UserRepo) SetOngoingMatch(ctx context.Context, userID uint64, matchID string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET ongoing_match_id=? WHERE id=?", matchID, userID)
	return err
}

// ClearOngoingMatch unsets the user's ongoing-match reference. The
// match history is intentionally left untouched: cancellation is a
// logical operation and the history is an audit trail.
func (r *UserRepo) ClearOngoingMatch(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET ongoing_match_id=NULL WHERE id=?", userID)
	return err
}

// AppendMatchHistory appends a match id to the user's history. Rows
// are never updated or deleted afterwards.
func (r *UserRepo) AppendMatchHistory(ctx context.Context, userID uint64, matchID string) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO user_match_history (user_id, match_id) VALUES (?,?)",
		userID, matchID)
	return err
}

// MatchHistory returns the user's match ids in insertion order.
func (r *UserRepo) MatchHistory(ctx context.Context, userID uint64) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT match_id FROM user_match_history WHERE user_id=? ORDER BY id ASC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	history := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		history = append(history, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return history, nil
}

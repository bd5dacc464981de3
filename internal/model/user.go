package model

import "time"

// User represents an application user record as stored in the
// `users` table. Each field corresponds to a column in the
// database. The json tags are omitted here because these structs
// are primarily used internally by the repository layer; handlers
// define separate response types with appropriate JSON tags.
//
// A user belongs to an organizational unit; matches a user creates
// are only ever hosted by stadiums of the same unit. At most one
// match may be ongoing for a user at any time, referenced by
// OngoingMatchID. The match history lives in the separate
// user_match_history table and is append-only.
//
// Fields:
//  ID             – primary key identifier of the user.
//  Username       – unique login name.
//  PasswordHash   – bcrypt hashed password.
//  Role           – role name (PLAYER or MANAGER).
//  Rank           – numeric rank used for display only.
//  Unit           – organizational unit the user belongs to.
//  OngoingMatchID – match id of the user's active match (nil when none).
//  IsActive       – whether the account is active.
//  CreatedAt      – timestamp of creation.
//  UpdatedAt      – timestamp of last update.
type User struct {
	ID             uint64    // users.id
	Username       string    // users.username
	PasswordHash   string    // users.password_hash
	Role           string    // users.role
	Rank           uint32    // users.rank
	Unit           string    // users.unit
	OngoingMatchID *string   // users.ongoing_match_id (nullable)
	IsActive       bool      // users.is_active
	CreatedAt      time.Time // users.created_at
	UpdatedAt      time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table. Each
// refresh token belongs to a user and contains metadata for expiry
// and revocation. The plain token is not stored; only its
// SHA-256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}

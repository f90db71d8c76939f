package entity

import (
	"time"

	"github.com/google/uuid"
)

type SessionKind string

const (
	// SessionWeb backs the browser cookie
	SessionWeb SessionKind = "web"
	// SessionAPI backs the opaque "Authorization: Token <key>" scheme
	SessionAPI SessionKind = "api"
)

type Session struct {
	BaseSimple
	UserID    uuid.UUID   `db:"user_id"`
	Token     uuid.UUID   `db:"token"`
	Kind      SessionKind `db:"kind"`
	UserAgent *string     `db:"user_agent"`
	IPAddress *string     `db:"ip_address"`
	ExpiresAt time.Time   `db:"expires_at"`
	RevokedAt *time.Time  `db:"revoked_at"`
}

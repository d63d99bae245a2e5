package models

import "time"

// TokenType distinguishes the kinds of credentials tracked per user.
type TokenType string

const TokenBearer TokenType = "BEARER"

// Token is the persisted bookkeeping record for an issued credential.
// At most one row exists per (UserID, Type).
type Token struct {
	ID         int64
	UserID     int64
	Type       TokenType
	Value      string
	LastUsedAt time.Time
	ExpiresAt  time.Time
}

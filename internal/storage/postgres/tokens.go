package postgres

import (
	"context"
	"fmt"

	"github.com/hongminglow/storefront-api/internal/models"
)

// UpsertToken inserts the token or refreshes the existing (user_id, type) row
// in a single statement, so concurrent logins never create a second row.
func (s *Store) UpsertToken(ctx context.Context, tok models.Token) (models.Token, error) {
	const q = `
		INSERT INTO tokens (user_id, type, value, last_used_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, type) DO UPDATE
		SET value = EXCLUDED.value,
			last_used_at = EXCLUDED.last_used_at,
			expires_at = EXCLUDED.expires_at
		RETURNING id, user_id, type, value, last_used_at, expires_at`
	row := s.db.QueryRowContext(ctx, q, tok.UserID, string(tok.Type), tok.Value, tok.LastUsedAt, tok.ExpiresAt)
	saved, err := scanToken(row)
	if err != nil {
		return models.Token{}, fmt.Errorf("upsert token: %w", translate(err))
	}
	return saved, nil
}

// FindToken fetches the token row for a user and type.
func (s *Store) FindToken(ctx context.Context, userID int64, typ models.TokenType) (models.Token, error) {
	const q = `SELECT id, user_id, type, value, last_used_at, expires_at FROM tokens WHERE user_id = $1 AND type = $2`
	tok, err := scanToken(s.db.QueryRowContext(ctx, q, userID, string(typ)))
	if err != nil {
		return models.Token{}, translate(err)
	}
	return tok, nil
}

func scanToken(row rowScanner) (models.Token, error) {
	var (
		tok models.Token
		typ string
	)
	if err := row.Scan(&tok.ID, &tok.UserID, &typ, &tok.Value, &tok.LastUsedAt, &tok.ExpiresAt); err != nil {
		return models.Token{}, err
	}
	tok.Type = models.TokenType(typ)
	return tok, nil
}

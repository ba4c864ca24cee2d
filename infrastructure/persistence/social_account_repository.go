package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"socialhub/domain/model"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const socialAccountColumns = `id, user_id, platform, platform_user_id, username, display_name, follower_count, is_business_account, access_token, refresh_token, token_expires_at, scopes, created_at, updated_at`

type SocialAccountRepository struct{ db *sql.DB }

func NewSocialAccountRepository(db *sql.DB) *SocialAccountRepository {
	return &SocialAccountRepository{db: db}
}

// nowUTC matches the microsecond precision of timestamptz so compare-and-swap on updated_at is exact.
func nowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSocialAccount(row rowScanner) (*model.LinkedAccount, error) {
	a := &model.LinkedAccount{}
	var refresh sql.NullString
	var exp sql.NullTime
	if err := row.Scan(&a.ID, &a.UserID, &a.Platform, &a.PlatformUserID, &a.Username, &a.DisplayName, &a.FollowerCount, &a.IsBusinessAccount, &a.AccessToken, &refresh, &exp, pq.Array(&a.Scopes), &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.RefreshToken = refresh.String
	if exp.Valid {
		a.TokenExpiresAt = exp.Time
	}
	return a, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func (r *SocialAccountRepository) GetByUserPlatform(ctx context.Context, userID, platform string) (*model.LinkedAccount, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+socialAccountColumns+` FROM social_accounts WHERE user_id=$1 AND platform=$2`, userID, platform)
	a, err := scanSocialAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get social account: %w", err)
	}
	return a, nil
}

func (r *SocialAccountRepository) ListByUser(ctx context.Context, userID string) ([]model.LinkedAccount, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+socialAccountColumns+` FROM social_accounts WHERE user_id=$1 ORDER BY platform`, userID)
	if err != nil {
		return nil, fmt.Errorf("list social accounts: %w", err)
	}
	defer rows.Close()

	accounts := []model.LinkedAccount{}
	for rows.Next() {
		a, err := scanSocialAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan social account: %w", err)
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

func (r *SocialAccountRepository) Insert(ctx context.Context, a *model.LinkedAccount) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := nowUTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	q := `INSERT INTO social_accounts (` + socialAccountColumns + `)
		  VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`
	_, err := r.db.ExecContext(ctx, q, a.ID, a.UserID, a.Platform, a.PlatformUserID, a.Username, a.DisplayName, a.FollowerCount, a.IsBusinessAccount, a.AccessToken, nullString(a.RefreshToken), nullTime(a.TokenExpiresAt), pq.Array(a.Scopes), a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert social account: %w", err)
	}
	return nil
}

func (r *SocialAccountRepository) Update(ctx context.Context, a *model.LinkedAccount) error {
	a.UpdatedAt = nowUTC()
	q := `UPDATE social_accounts SET
			platform_user_id=$1,
			username=$2,
			display_name=$3,
			follower_count=$4,
			is_business_account=$5,
			access_token=$6,
			refresh_token=$7,
			token_expires_at=$8,
			scopes=$9,
			updated_at=$10
		  WHERE user_id=$11 AND platform=$12`
	res, err := r.db.ExecContext(ctx, q, a.PlatformUserID, a.Username, a.DisplayName, a.FollowerCount, a.IsBusinessAccount, a.AccessToken, nullString(a.RefreshToken), nullTime(a.TokenExpiresAt), pq.Array(a.Scopes), a.UpdatedAt, a.UserID, a.Platform)
	if err != nil {
		return fmt.Errorf("update social account: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// Upsert inserts or replaces the account keyed by (user_id, platform).
func (r *SocialAccountRepository) Upsert(ctx context.Context, a *model.LinkedAccount) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := nowUTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	q := `INSERT INTO social_accounts (` + socialAccountColumns + `)
		  VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		  ON CONFLICT (user_id, platform) DO UPDATE SET
			platform_user_id=EXCLUDED.platform_user_id,
			username=EXCLUDED.username,
			display_name=EXCLUDED.display_name,
			follower_count=EXCLUDED.follower_count,
			is_business_account=EXCLUDED.is_business_account,
			access_token=EXCLUDED.access_token,
			refresh_token=EXCLUDED.refresh_token,
			token_expires_at=EXCLUDED.token_expires_at,
			scopes=EXCLUDED.scopes,
			updated_at=EXCLUDED.updated_at
		  RETURNING id, created_at`
	row := r.db.QueryRowContext(ctx, q, a.ID, a.UserID, a.Platform, a.PlatformUserID, a.Username, a.DisplayName, a.FollowerCount, a.IsBusinessAccount, a.AccessToken, nullString(a.RefreshToken), nullTime(a.TokenExpiresAt), pq.Array(a.Scopes), a.CreatedAt, a.UpdatedAt)
	if err := row.Scan(&a.ID, &a.CreatedAt); err != nil {
		return fmt.Errorf("upsert social account: %w", err)
	}
	return nil
}

func (r *SocialAccountRepository) UpdateTokens(ctx context.Context, a *model.LinkedAccount, expectedUpdatedAt time.Time) error {
	updatedAt := nowUTC()
	q := `UPDATE social_accounts SET access_token=$1, refresh_token=$2, token_expires_at=$3, updated_at=$4
		  WHERE id=$5 AND updated_at=$6`
	res, err := r.db.ExecContext(ctx, q, a.AccessToken, nullString(a.RefreshToken), nullTime(a.TokenExpiresAt), updatedAt, a.ID, expectedUpdatedAt)
	if err != nil {
		return fmt.Errorf("update social account tokens: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update social account tokens: %w", err)
	}
	if n == 0 {
		return model.ErrConcurrentModification
	}
	a.UpdatedAt = updatedAt
	return nil
}

// Delete is idempotent; deleting a missing row is not an error.
func (r *SocialAccountRepository) Delete(ctx context.Context, userID, platform string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM social_accounts WHERE user_id=$1 AND platform=$2`, userID, platform); err != nil {
		return fmt.Errorf("delete social account: %w", err)
	}
	return nil
}

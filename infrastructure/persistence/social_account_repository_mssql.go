package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"socialhub/domain/model"

	"github.com/google/uuid"
)

type SocialAccountRepositoryMSSQL struct{ db *sql.DB }

func NewSocialAccountRepositoryMSSQL(db *sql.DB) *SocialAccountRepositoryMSSQL {
	return &SocialAccountRepositoryMSSQL{db: db}
}

// scopes are stored as a JSON array in NVARCHAR(MAX)
func encodeList(v []string) (string, error) {
	if v == nil {
		v = []string{}
	}
	b, err := json.Marshal(v)
	return string(b), err
}

func decodeList(raw string) ([]string, error) {
	out := []string{}
	if raw == "" {
		return out, nil
	}
	err := json.Unmarshal([]byte(raw), &out)
	return out, err
}

func (r *SocialAccountRepositoryMSSQL) scan(row rowScanner) (*model.LinkedAccount, error) {
	a := &model.LinkedAccount{}
	var refresh sql.NullString
	var exp sql.NullTime
	var scopes string
	if err := row.Scan(&a.ID, &a.UserID, &a.Platform, &a.PlatformUserID, &a.Username, &a.DisplayName, &a.FollowerCount, &a.IsBusinessAccount, &a.AccessToken, &refresh, &exp, &scopes, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.RefreshToken = refresh.String
	if exp.Valid {
		a.TokenExpiresAt = exp.Time
	}
	list, err := decodeList(scopes)
	if err != nil {
		return nil, fmt.Errorf("decode scopes: %w", err)
	}
	a.Scopes = list
	return a, nil
}

func (r *SocialAccountRepositoryMSSQL) GetByUserPlatform(ctx context.Context, userID, platform string) (*model.LinkedAccount, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+socialAccountColumns+` FROM dbo.[social_accounts] WHERE user_id=@p1 AND platform=@p2`, userID, platform)
	a, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get social account: %w", err)
	}
	return a, nil
}

func (r *SocialAccountRepositoryMSSQL) ListByUser(ctx context.Context, userID string) ([]model.LinkedAccount, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+socialAccountColumns+` FROM dbo.[social_accounts] WHERE user_id=@p1 ORDER BY platform`, userID)
	if err != nil {
		return nil, fmt.Errorf("list social accounts: %w", err)
	}
	defer rows.Close()

	accounts := []model.LinkedAccount{}
	for rows.Next() {
		a, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan social account: %w", err)
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

func (r *SocialAccountRepositoryMSSQL) Insert(ctx context.Context, a *model.LinkedAccount) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := nowUTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	scopes, err := encodeList(a.Scopes)
	if err != nil {
		return fmt.Errorf("encode scopes: %w", err)
	}
	q := `INSERT INTO dbo.[social_accounts] (` + socialAccountColumns + `)
VALUES (@p1, @p2, @p3, @p4, @p5, @p6, @p7, @p8, @p9, @p10, @p11, @p12, @p13, @p14)`
	if _, err := r.db.ExecContext(ctx, q, a.ID, a.UserID, a.Platform, a.PlatformUserID, a.Username, a.DisplayName, a.FollowerCount, a.IsBusinessAccount, a.AccessToken, nullString(a.RefreshToken), nullTime(a.TokenExpiresAt), scopes, a.CreatedAt, a.UpdatedAt); err != nil {
		return fmt.Errorf("insert social account: %w", err)
	}
	return nil
}

func (r *SocialAccountRepositoryMSSQL) Update(ctx context.Context, a *model.LinkedAccount) error {
	a.UpdatedAt = nowUTC()
	scopes, err := encodeList(a.Scopes)
	if err != nil {
		return fmt.Errorf("encode scopes: %w", err)
	}
	q := `UPDATE dbo.[social_accounts] SET
    platform_user_id=@p1,
    username=@p2,
    display_name=@p3,
    follower_count=@p4,
    is_business_account=@p5,
    access_token=@p6,
    refresh_token=@p7,
    token_expires_at=@p8,
    scopes=@p9,
    updated_at=@p10
WHERE user_id=@p11 AND platform=@p12`
	res, err := r.db.ExecContext(ctx, q, a.PlatformUserID, a.Username, a.DisplayName, a.FollowerCount, a.IsBusinessAccount, a.AccessToken, nullString(a.RefreshToken), nullTime(a.TokenExpiresAt), scopes, a.UpdatedAt, a.UserID, a.Platform)
	if err != nil {
		return fmt.Errorf("update social account: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// Upsert is a MERGE keyed by (user_id, platform).
func (r *SocialAccountRepositoryMSSQL) Upsert(ctx context.Context, a *model.LinkedAccount) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := nowUTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	scopes, err := encodeList(a.Scopes)
	if err != nil {
		return fmt.Errorf("encode scopes: %w", err)
	}
	q := `MERGE dbo.[social_accounts] AS target
USING (VALUES (@p2, @p3)) AS src(user_id, platform)
ON target.user_id = src.user_id AND target.platform = src.platform
WHEN MATCHED THEN UPDATE SET
    platform_user_id=@p4,
    username=@p5,
    display_name=@p6,
    follower_count=@p7,
    is_business_account=@p8,
    access_token=@p9,
    refresh_token=@p10,
    token_expires_at=@p11,
    scopes=@p12,
    updated_at=@p14
WHEN NOT MATCHED THEN
    INSERT (` + socialAccountColumns + `)
    VALUES (@p1, @p2, @p3, @p4, @p5, @p6, @p7, @p8, @p9, @p10, @p11, @p12, @p13, @p14)
OUTPUT inserted.id, inserted.created_at;`
	row := r.db.QueryRowContext(ctx, q, a.ID, a.UserID, a.Platform, a.PlatformUserID, a.Username, a.DisplayName, a.FollowerCount, a.IsBusinessAccount, a.AccessToken, nullString(a.RefreshToken), nullTime(a.TokenExpiresAt), scopes, a.CreatedAt, a.UpdatedAt)
	if err := row.Scan(&a.ID, &a.CreatedAt); err != nil {
		return fmt.Errorf("upsert social account: %w", err)
	}
	return nil
}

func (r *SocialAccountRepositoryMSSQL) UpdateTokens(ctx context.Context, a *model.LinkedAccount, expectedUpdatedAt time.Time) error {
	updatedAt := nowUTC()
	q := `UPDATE dbo.[social_accounts] SET access_token=@p1, refresh_token=@p2, token_expires_at=@p3, updated_at=@p4
WHERE id=@p5 AND updated_at=@p6`
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

func (r *SocialAccountRepositoryMSSQL) Delete(ctx context.Context, userID, platform string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM dbo.[social_accounts] WHERE user_id=@p1 AND platform=@p2`, userID, platform); err != nil {
		return fmt.Errorf("delete social account: %w", err)
	}
	return nil
}

package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"socialhub/domain/model"

	"github.com/google/uuid"
)

type PlatformConfigRepositoryMSSQL struct{ db *sql.DB }

func NewPlatformConfigRepositoryMSSQL(db *sql.DB) *PlatformConfigRepositoryMSSQL {
	return &PlatformConfigRepositoryMSSQL{db: db}
}

func (r *PlatformConfigRepositoryMSSQL) scan(row rowScanner) (*model.PlatformConfig, error) {
	var times string
	c, settings, err := scanPlatformConfig(row, &times)
	if err != nil {
		return nil, err
	}
	if c.OptimalPostingTimes, err = decodeList(times); err != nil {
		return nil, fmt.Errorf("decode posting times: %w", err)
	}
	if err := decodeSettings(c, settings); err != nil {
		return nil, fmt.Errorf("decode platform config settings: %w", err)
	}
	return c, nil
}

func (r *PlatformConfigRepositoryMSSQL) GetByUserPlatform(ctx context.Context, userID, platform string) (*model.PlatformConfig, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+platformConfigColumns+` FROM dbo.[platform_configs] WHERE user_id=@p1 AND platform=@p2`, userID, platform)
	c, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get platform config: %w", err)
	}
	return c, nil
}

func (r *PlatformConfigRepositoryMSSQL) ListByUser(ctx context.Context, userID string) ([]model.PlatformConfig, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+platformConfigColumns+` FROM dbo.[platform_configs] WHERE user_id=@p1 ORDER BY platform`, userID)
	if err != nil {
		return nil, fmt.Errorf("list platform configs: %w", err)
	}
	defer rows.Close()

	configs := []model.PlatformConfig{}
	for rows.Next() {
		c, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan platform config: %w", err)
		}
		configs = append(configs, *c)
	}
	return configs, rows.Err()
}

func (r *PlatformConfigRepositoryMSSQL) Insert(ctx context.Context, c *model.PlatformConfig) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := nowUTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	times, err := encodeList(c.OptimalPostingTimes)
	if err != nil {
		return fmt.Errorf("encode posting times: %w", err)
	}
	settings, err := json.Marshal(c.Settings)
	if err != nil {
		return fmt.Errorf("encode platform config settings: %w", err)
	}
	q := `INSERT INTO dbo.[platform_configs] (` + platformConfigColumns + `)
VALUES (@p1, @p2, @p3, @p4, @p5, @p6, @p7, @p8, @p9, @p10, @p11)`
	if _, err := r.db.ExecContext(ctx, q, c.ID, c.UserID, c.Platform, c.DefaultPostFormat, times, c.HashtagStrategy, c.ImageQuality, c.AutoPublish, string(settings), c.CreatedAt, c.UpdatedAt); err != nil {
		return fmt.Errorf("insert platform config: %w", err)
	}
	return nil
}

func (r *PlatformConfigRepositoryMSSQL) Delete(ctx context.Context, userID, platform string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM dbo.[platform_configs] WHERE user_id=@p1 AND platform=@p2`, userID, platform); err != nil {
		return fmt.Errorf("delete platform config: %w", err)
	}
	return nil
}

func (r *PlatformConfigRepositoryMSSQL) DeleteOrphaned(ctx context.Context) (int64, error) {
	q := `DELETE pc FROM dbo.[platform_configs] AS pc
WHERE NOT EXISTS (
    SELECT 1 FROM dbo.[social_accounts] AS sa WHERE sa.user_id = pc.user_id AND sa.platform = pc.platform
)`
	res, err := r.db.ExecContext(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("delete orphaned platform configs: %w", err)
	}
	return res.RowsAffected()
}

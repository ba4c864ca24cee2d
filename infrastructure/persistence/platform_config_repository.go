package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"socialhub/domain/model"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const platformConfigColumns = `id, user_id, platform, default_post_format, optimal_posting_times, hashtag_strategy, image_quality, auto_publish, settings, created_at, updated_at`

type PlatformConfigRepository struct{ db *sql.DB }

func NewPlatformConfigRepository(db *sql.DB) *PlatformConfigRepository {
	return &PlatformConfigRepository{db: db}
}

func scanPlatformConfig(row rowScanner, times any) (*model.PlatformConfig, []byte, error) {
	c := &model.PlatformConfig{}
	var settings []byte
	if err := row.Scan(&c.ID, &c.UserID, &c.Platform, &c.DefaultPostFormat, times, &c.HashtagStrategy, &c.ImageQuality, &c.AutoPublish, &settings, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, nil, err
	}
	return c, settings, nil
}

func decodeSettings(c *model.PlatformConfig, raw []byte) error {
	c.Settings = map[string]any{}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, &c.Settings)
}

func (r *PlatformConfigRepository) scan(row rowScanner) (*model.PlatformConfig, error) {
	var times []string
	c, settings, err := scanPlatformConfig(row, pq.Array(&times))
	if err != nil {
		return nil, err
	}
	c.OptimalPostingTimes = times
	if err := decodeSettings(c, settings); err != nil {
		return nil, fmt.Errorf("decode platform config settings: %w", err)
	}
	return c, nil
}

func (r *PlatformConfigRepository) GetByUserPlatform(ctx context.Context, userID, platform string) (*model.PlatformConfig, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+platformConfigColumns+` FROM platform_configs WHERE user_id=$1 AND platform=$2`, userID, platform)
	c, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get platform config: %w", err)
	}
	return c, nil
}

func (r *PlatformConfigRepository) ListByUser(ctx context.Context, userID string) ([]model.PlatformConfig, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+platformConfigColumns+` FROM platform_configs WHERE user_id=$1 ORDER BY platform`, userID)
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

func (r *PlatformConfigRepository) Insert(ctx context.Context, c *model.PlatformConfig) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := nowUTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	settings, err := json.Marshal(c.Settings)
	if err != nil {
		return fmt.Errorf("encode platform config settings: %w", err)
	}
	q := `INSERT INTO platform_configs (` + platformConfigColumns + `)
		  VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`
	if _, err := r.db.ExecContext(ctx, q, c.ID, c.UserID, c.Platform, c.DefaultPostFormat, pq.Array(c.OptimalPostingTimes), c.HashtagStrategy, c.ImageQuality, c.AutoPublish, settings, c.CreatedAt, c.UpdatedAt); err != nil {
		return fmt.Errorf("insert platform config: %w", err)
	}
	return nil
}

func (r *PlatformConfigRepository) Delete(ctx context.Context, userID, platform string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM platform_configs WHERE user_id=$1 AND platform=$2`, userID, platform); err != nil {
		return fmt.Errorf("delete platform config: %w", err)
	}
	return nil
}

func (r *PlatformConfigRepository) DeleteOrphaned(ctx context.Context) (int64, error) {
	q := `DELETE FROM platform_configs pc
		  WHERE NOT EXISTS (
			SELECT 1 FROM social_accounts sa WHERE sa.user_id = pc.user_id AND sa.platform = pc.platform
		  )`
	res, err := r.db.ExecContext(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("delete orphaned platform configs: %w", err)
	}
	return res.RowsAffected()
}

package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"social-feed/internal/domain"
	"social-feed/internal/infra/metrics"
)

const queryTimeout = 5 * time.Second

// Postgres implements the repositories on top of pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

var (
	_ domain.ProfileRepo = (*Postgres)(nil)
	_ domain.FollowRepo  = (*Postgres)(nil)
	_ domain.MessageRepo = (*Postgres)(nil)
)

// NewPostgres creates the database adapter.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return context.WithTimeout(context.Background(), queryTimeout)
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, queryTimeout)
}

// CreateProfile inserts a profile and returns its id.
func (p *Postgres) CreateProfile(ctx context.Context, profile domain.NewProfile) (int64, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	var id int64
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
INSERT INTO profile (user_name, full_name, description, region, main_url, avatar)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id
`, profile.UserName, profile.FullName, profile.Description, profile.Region, profile.MainURL, profile.Avatar).Scan(&id)
	metrics.ObserveNetworkRequest("postgres", "profile_insert", "profile", start, err)
	return id, err
}

// GetProfile returns a profile by id.
func (p *Postgres) GetProfile(ctx context.Context, id int64) (domain.Profile, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	var (
		profile domain.Profile
		region  sql.NullString
		mainURL sql.NullString
	)
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT id, created_at, updated_at, user_name, full_name, description, region, main_url, avatar
FROM profile WHERE id = $1
`, id).Scan(&profile.ID, &profile.CreatedAt, &profile.UpdatedAt, &profile.UserName, &profile.FullName, &profile.Description, &region, &mainURL, &profile.Avatar)
	metrics.ObserveNetworkRequest("postgres", "profile_get", "profile", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Profile{}, domain.ErrProfileNotFound
	}
	if err != nil {
		return domain.Profile{}, err
	}
	if region.Valid {
		value := region.String
		profile.Region = &value
	}
	if mainURL.Valid {
		value := mainURL.String
		profile.MainURL = &value
	}
	return profile, nil
}

// CreateFollow inserts a follow edge and returns its id.
func (p *Postgres) CreateFollow(ctx context.Context, followerID, followingID int64) (int64, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	var id int64
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
INSERT INTO follow (follower_id, following_id)
VALUES ($1, $2)
RETURNING id
`, followerID, followingID).Scan(&id)
	metrics.ObserveNetworkRequest("postgres", "follow_insert", "follow", start, err)
	return id, err
}

// ListFollowsByFollower returns the follow edges of one follower.
func (p *Postgres) ListFollowsByFollower(ctx context.Context, followerID int64) ([]domain.Follow, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, created_at, updated_at, follower_id, following_id
FROM follow WHERE follower_id = $1
`, followerID)
	metrics.ObserveNetworkRequest("postgres", "follow_list", "follow", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var follows []domain.Follow
	for rows.Next() {
		var f domain.Follow
		if err := rows.Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt, &f.FollowerID, &f.FollowingID); err != nil {
			return nil, err
		}
		follows = append(follows, f)
	}
	return follows, rows.Err()
}

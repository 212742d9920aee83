package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"social-feed/internal/domain"
	"social-feed/internal/infra/metrics"
)

// messageRowColumns is the select list shared by every author-enriched message
// query: message fields, author profile fields, and the id of the message the
// row broadcasts (NULL when it broadcasts nothing).
const messageRowColumns = `
m.id, m.updated_at, m.body, m.likes, m.image,
p.id, p.user_name, p.full_name, p.avatar,
mb.broadcasting_msg_id`

// CreateMessage inserts a message and, when broadcastTargetID is set, its
// broadcast link in one transaction. A failed link insert rolls back the
// message insert as well.
func (p *Postgres) CreateMessage(ctx context.Context, userID int64, body string, broadcastTargetID *int64) (int64, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	metrics.ObserveNetworkRequest("postgres", "begin_tx", "message", start, err)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var messageID int64
	start = time.Now()
	err = tx.QueryRow(ctx, `
INSERT INTO message (user_id, body)
VALUES ($1, $2)
RETURNING id
`, userID, body).Scan(&messageID)
	metrics.ObserveNetworkRequest("postgres", "message_insert", "message", start, err)
	if err != nil {
		return 0, err
	}

	if broadcastTargetID != nil {
		start = time.Now()
		_, err = tx.Exec(ctx, `
INSERT INTO message_broadcast (main_msg_id, broadcasting_msg_id)
VALUES ($1, $2)
`, messageID, *broadcastTargetID)
		metrics.ObserveNetworkRequest("postgres", "message_broadcast_insert", "message_broadcast", start, err)
		if err != nil {
			return 0, err
		}
	}

	start = time.Now()
	err = tx.Commit(ctx)
	metrics.ObserveNetworkRequest("postgres", "commit", "message", start, err)
	if err != nil {
		return 0, err
	}
	return messageID, nil
}

// CreateResponseMessage inserts a message and its mandatory response link in
// one transaction.
func (p *Postgres) CreateResponseMessage(ctx context.Context, userID int64, body string, originalMsgID int64) (int64, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	metrics.ObserveNetworkRequest("postgres", "begin_tx", "message", start, err)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var messageID int64
	start = time.Now()
	err = tx.QueryRow(ctx, `
INSERT INTO message (user_id, body)
VALUES ($1, $2)
RETURNING id
`, userID, body).Scan(&messageID)
	metrics.ObserveNetworkRequest("postgres", "message_insert", "message", start, err)
	if err != nil {
		return 0, err
	}

	start = time.Now()
	_, err = tx.Exec(ctx, `
INSERT INTO message_response (original_msg_id, responding_msg_id)
VALUES ($1, $2)
`, originalMsgID, messageID)
	metrics.ObserveNetworkRequest("postgres", "message_response_insert", "message_response", start, err)
	if err != nil {
		return 0, err
	}

	start = time.Now()
	err = tx.Commit(ctx)
	metrics.ObserveNetworkRequest("postgres", "commit", "message", start, err)
	if err != nil {
		return 0, err
	}
	return messageID, nil
}

// GetMessageRow returns one author-enriched row, or nil when the message does
// not exist.
func (p *Postgres) GetMessageRow(ctx context.Context, id int64) (*domain.MessageRow, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	row := p.pool.QueryRow(ctx, `
SELECT `+messageRowColumns+`
FROM message m
JOIN profile p ON p.id = m.user_id
LEFT JOIN message_broadcast mb ON mb.main_msg_id = m.id
WHERE m.id = $1
`, id)
	result, err := scanMessageRow(row)
	metrics.ObserveNetworkRequest("postgres", "message_get", "message", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ListFollowedMessageRows returns one feed page: messages authored by accounts
// the viewer follows, strictly older than before, newest first with the id as
// tie-break.
func (p *Postgres) ListFollowedMessageRows(ctx context.Context, viewerID int64, before time.Time, limit int) ([]domain.MessageRow, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT `+messageRowColumns+`
FROM message m
JOIN follow f ON f.following_id = m.user_id
JOIN profile p ON p.id = m.user_id
LEFT JOIN message_broadcast mb ON mb.main_msg_id = m.id
WHERE f.follower_id = $1 AND m.updated_at < $2
ORDER BY m.updated_at DESC, m.id DESC
LIMIT $3
`, viewerID, before, limit)
	metrics.ObserveNetworkRequest("postgres", "message_list_followed", "message", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMessageRows(rows)
}

// ListMessageRowsByIDs returns author-enriched rows for all given message ids
// in a single round-trip.
func (p *Postgres) ListMessageRowsByIDs(ctx context.Context, ids []int64) ([]domain.MessageRow, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT `+messageRowColumns+`
FROM message m
JOIN profile p ON p.id = m.user_id
LEFT JOIN message_broadcast mb ON mb.main_msg_id = m.id
WHERE m.id = ANY($1)
`, ids)
	metrics.ObserveNetworkRequest("postgres", "message_list_by_ids", "message", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMessageRows(rows)
}

func scanMessageRow(row pgx.Row) (domain.MessageRow, error) {
	var (
		result   domain.MessageRow
		body     sql.NullString
		targetID sql.NullInt64
	)
	err := row.Scan(&result.ID, &result.UpdatedAt, &body, &result.Likes, &result.Image,
		&result.UserID, &result.UserName, &result.FullName, &result.Avatar, &targetID)
	if err != nil {
		return domain.MessageRow{}, err
	}
	if body.Valid {
		value := body.String
		result.Body = &value
	}
	if targetID.Valid {
		value := targetID.Int64
		result.BroadcastTargetID = &value
	}
	return result, nil
}

func collectMessageRows(rows pgx.Rows) ([]domain.MessageRow, error) {
	var result []domain.MessageRow
	for rows.Next() {
		r, err := scanMessageRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

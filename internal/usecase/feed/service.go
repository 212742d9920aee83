// Package feed assembles transport-ready message views: it reads the joined
// message/profile rows, resolves broadcast targets in a second pass, and merges
// both into flattened views.
package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"social-feed/internal/domain"
	"social-feed/internal/infra/metrics"
)

// Service implements the read side of messages and feeds.
type Service struct {
	messages        domain.MessageRepo
	log             zerolog.Logger
	defaultPageSize int
	maxPageSize     int
}

// NewService creates the feed service.
func NewService(messages domain.MessageRepo, logger zerolog.Logger, defaultPageSize, maxPageSize int) *Service {
	if defaultPageSize <= 0 {
		defaultPageSize = 20
	}
	if maxPageSize < defaultPageSize {
		maxPageSize = defaultPageSize
	}
	return &Service{
		messages:        messages,
		log:             logger,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

// GetMessage returns one enriched message view. A missing message maps to
// domain.ErrMessageNotFound; a failed broadcast resolution degrades the view
// to one without broadcast data instead of failing the read.
func (s *Service) GetMessage(ctx context.Context, id int64) (*domain.MessageView, error) {
	row, err := s.messages.GetMessageRow(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get message %d: %w", id, err)
	}
	if row == nil {
		return nil, domain.ErrMessageNotFound
	}

	var target *domain.MessageRow
	if row.BroadcastTargetID != nil {
		targets, err := s.messages.ListMessageRowsByIDs(ctx, []int64{*row.BroadcastTargetID})
		if err != nil {
			metrics.BroadcastResolutionFailures.Inc()
			s.log.Error().Err(err).Int64("message_id", id).Msg("feed: broadcast resolution failed")
		} else if len(targets) > 0 {
			target = &targets[0]
		}
	}

	view := mergeBroadcast(*row, target)
	return &view, nil
}

// ListFeed returns one page of the viewer's feed: messages of followed
// accounts strictly older than before, newest first, at most pageSize rows.
// The broadcast targets of the whole page are resolved in a single batched
// query; if that query fails the page is returned with BroadcastsDegraded set
// and no broadcast data instead of an error.
func (s *Service) ListFeed(ctx context.Context, viewerID int64, before time.Time, pageSize int) (domain.FeedPage, error) {
	metrics.FeedRequestsTotal.Inc()
	start := time.Now()
	defer func() {
		metrics.FeedAssemblySeconds.Observe(time.Since(start).Seconds())
	}()

	if before.IsZero() {
		before = time.Now().UTC()
	}
	if pageSize <= 0 {
		pageSize = s.defaultPageSize
	}
	if pageSize > s.maxPageSize {
		pageSize = s.maxPageSize
	}

	rows, err := s.messages.ListFollowedMessageRows(ctx, viewerID, before, pageSize)
	if err != nil {
		return domain.FeedPage{}, fmt.Errorf("list feed for viewer %d: %w", viewerID, err)
	}

	targetIDs := collectBroadcastTargetIDs(rows)

	var (
		targets  map[int64]domain.MessageRow
		degraded bool
	)
	if len(targetIDs) > 0 {
		targetRows, err := s.messages.ListMessageRowsByIDs(ctx, targetIDs)
		if err != nil {
			// The page itself is still valid; only the enrichment is lost.
			degraded = true
			metrics.BroadcastResolutionFailures.Inc()
			s.log.Error().Err(err).Int64("viewer_id", viewerID).Int("targets", len(targetIDs)).
				Msg("feed: batched broadcast resolution failed")
		} else {
			targets = make(map[int64]domain.MessageRow, len(targetRows))
			for _, t := range targetRows {
				targets[t.ID] = t
			}
		}
	}

	views := make([]domain.MessageView, 0, len(rows))
	for _, row := range rows {
		var target *domain.MessageRow
		if row.BroadcastTargetID != nil {
			if match, ok := targets[*row.BroadcastTargetID]; ok {
				target = &match
			}
		}
		views = append(views, mergeBroadcast(row, target))
	}

	return domain.FeedPage{Messages: views, BroadcastsDegraded: degraded}, nil
}

// collectBroadcastTargetIDs returns the distinct broadcast target ids of the
// page, in first-seen order.
func collectBroadcastTargetIDs(rows []domain.MessageRow) []int64 {
	seen := make(map[int64]struct{})
	var ids []int64
	for _, row := range rows {
		if row.BroadcastTargetID == nil {
			continue
		}
		id := *row.BroadcastTargetID
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// mergeBroadcast builds the flattened view of a message row. The primary
// fields are copied verbatim; the broadcast fields are filled from the target
// row when one is present and stay nil otherwise. Pure: no I/O, same inputs
// always give the same view.
func mergeBroadcast(row domain.MessageRow, target *domain.MessageRow) domain.MessageView {
	view := domain.MessageView{
		ID:        row.ID,
		UpdatedAt: row.UpdatedAt,
		Body:      row.Body,
		Likes:     row.Likes,
		Image:     row.Image,
		UserID:    row.UserID,
		UserName:  row.UserName,
		FullName:  row.FullName,
		Avatar:    row.Avatar,
	}
	if target == nil {
		return view
	}

	targetID := target.ID
	targetUpdatedAt := target.UpdatedAt
	targetLikes := target.Likes
	targetUserID := target.UserID
	targetUserName := target.UserName
	targetFullName := target.FullName

	view.BroadcastID = &targetID
	view.BroadcastUpdatedAt = &targetUpdatedAt
	view.BroadcastBody = target.Body
	view.BroadcastLikes = &targetLikes
	view.BroadcastImage = target.Image
	view.BroadcastUserID = &targetUserID
	view.BroadcastUserName = &targetUserName
	view.BroadcastFullName = &targetFullName
	view.BroadcastAvatar = target.Avatar
	return view
}

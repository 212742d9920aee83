package domain

import (
	"context"
	"time"
)

// ProfileRepo manages identity records.
type ProfileRepo interface {
	CreateProfile(ctx context.Context, profile NewProfile) (int64, error)
	GetProfile(ctx context.Context, id int64) (Profile, error)
}

// FollowRepo manages follow edges.
type FollowRepo interface {
	CreateFollow(ctx context.Context, followerID, followingID int64) (int64, error)
	ListFollowsByFollower(ctx context.Context, followerID int64) ([]Follow, error)
}

// MessageRepo manages messages, their links, and the joined read queries the
// feed is assembled from.
type MessageRepo interface {
	// CreateMessage inserts a message and, when broadcastTargetID is set, the
	// broadcast link to the target message inside the same transaction. Either
	// both rows persist or neither does.
	CreateMessage(ctx context.Context, userID int64, body string, broadcastTargetID *int64) (int64, error)

	// CreateResponseMessage inserts a message and its mandatory response link
	// to the original message inside the same transaction.
	CreateResponseMessage(ctx context.Context, userID int64, body string, originalMsgID int64) (int64, error)

	// GetMessageRow returns one author-enriched row, or nil when no message
	// with that id exists.
	GetMessageRow(ctx context.Context, id int64) (*MessageRow, error)

	// ListFollowedMessageRows returns author-enriched rows of messages written
	// by accounts the viewer follows, strictly older than before, newest first.
	ListFollowedMessageRows(ctx context.Context, viewerID int64, before time.Time, limit int) ([]MessageRow, error)

	// ListMessageRowsByIDs returns author-enriched rows for the given message
	// ids in one round-trip.
	ListMessageRowsByIDs(ctx context.Context, ids []int64) ([]MessageRow, error)
}

package domain

import "time"

// MessageRow is one row of the message ⋈ profile read query. BroadcastTargetID
// is the id of the message this row re-shares, taken from the left-joined
// broadcast link; nil means the row broadcasts nothing.
type MessageRow struct {
	ID                int64
	UpdatedAt         time.Time
	Body              *string
	Likes             int
	Image             []byte
	UserID            int64
	UserName          string
	FullName          string
	Avatar            []byte
	BroadcastTargetID *int64
}

// MessageView is the flattened, transport-ready representation of a message:
// the primary row merged with its author profile and, when the message
// re-shares another one, the broadcast target's own enriched fields. All
// broadcast fields are nil when there is no broadcast.
type MessageView struct {
	ID        int64     `json:"id"`
	UpdatedAt time.Time `json:"updated_at"`
	Body      *string   `json:"body,omitempty"`
	Likes     int       `json:"likes"`
	Image     []byte    `json:"image,omitempty"`
	UserID    int64     `json:"user_id"`
	UserName  string    `json:"user_name"`
	FullName  string    `json:"full_name"`
	Avatar    []byte    `json:"avatar,omitempty"`

	BroadcastID        *int64     `json:"message_broadcast_id,omitempty"`
	BroadcastUpdatedAt *time.Time `json:"message_broadcast_updated_at,omitempty"`
	BroadcastBody      *string    `json:"message_broadcast_body,omitempty"`
	BroadcastLikes     *int       `json:"message_broadcast_likes,omitempty"`
	BroadcastImage     []byte     `json:"message_broadcast_image,omitempty"`
	BroadcastUserID    *int64     `json:"message_broadcast_user_id,omitempty"`
	BroadcastUserName  *string    `json:"message_broadcast_user_name,omitempty"`
	BroadcastFullName  *string    `json:"message_broadcast_full_name,omitempty"`
	BroadcastAvatar    []byte     `json:"message_broadcast_avatar,omitempty"`
}

// FeedPage is one page of a viewer's feed, newest first. BroadcastsDegraded is
// set when the broadcast resolution pass failed as a whole and every row was
// returned without broadcast data; the page itself is still valid.
type FeedPage struct {
	Messages           []MessageView `json:"messages"`
	BroadcastsDegraded bool          `json:"broadcasts_degraded,omitempty"`
}

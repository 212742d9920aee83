package domain

import (
	"errors"
	"time"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrMessageNotFound = errors.New("message not found")
)

// Profile is the identity record of an account. Profiles are created once at
// signup and are read-only afterward.
type Profile struct {
	ID          int64     `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	UserName    string    `json:"user_name"`
	FullName    string    `json:"full_name"`
	Description string    `json:"description"`
	Region      *string   `json:"region,omitempty"`
	MainURL     *string   `json:"main_url,omitempty"`
	Avatar      []byte    `json:"avatar,omitempty"`
}

// NewProfile carries the fields of a profile about to be inserted.
type NewProfile struct {
	UserName    string
	FullName    string
	Description string
	Region      *string
	MainURL     *string
	Avatar      []byte
}

// Message is a single authored message. Immutable after creation.
type Message struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	UserID    int64     `json:"user_id"`
	Body      *string   `json:"body,omitempty"`
	Image     []byte    `json:"image,omitempty"`
	Likes     int       `json:"likes"`
}

// Follow is a directed edge from a follower to the account it follows. The
// set of follow edges defines which messages appear in a viewer's feed.
type Follow struct {
	ID          int64     `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	FollowerID  int64     `json:"follower_id"`
	FollowingID int64     `json:"following_id"`
}

package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"social-feed/internal/domain"
)

type stubStore struct {
	profile      domain.Profile
	profileErr   error
	follows      []domain.Follow
	createdMsgID int64
	createMsgErr error
	lastUserID   int64
	lastBody     string
	lastTargetID *int64
	lastOriginal int64
	createCalls  int
}

func (s *stubStore) CreateProfile(context.Context, domain.NewProfile) (int64, error) {
	return 7, nil
}

func (s *stubStore) GetProfile(context.Context, int64) (domain.Profile, error) {
	return s.profile, s.profileErr
}

func (s *stubStore) CreateFollow(context.Context, int64, int64) (int64, error) {
	return 3, nil
}

func (s *stubStore) ListFollowsByFollower(context.Context, int64) ([]domain.Follow, error) {
	return s.follows, nil
}

func (s *stubStore) CreateMessage(_ context.Context, userID int64, body string, targetID *int64) (int64, error) {
	s.createCalls++
	s.lastUserID = userID
	s.lastBody = body
	s.lastTargetID = targetID
	return s.createdMsgID, s.createMsgErr
}

func (s *stubStore) CreateResponseMessage(_ context.Context, userID int64, body string, originalID int64) (int64, error) {
	s.lastUserID = userID
	s.lastBody = body
	s.lastOriginal = originalID
	return s.createdMsgID, s.createMsgErr
}

func (s *stubStore) GetMessageRow(context.Context, int64) (*domain.MessageRow, error) {
	return nil, nil
}

func (s *stubStore) ListFollowedMessageRows(context.Context, int64, time.Time, int) ([]domain.MessageRow, error) {
	return nil, nil
}

func (s *stubStore) ListMessageRowsByIDs(context.Context, []int64) ([]domain.MessageRow, error) {
	return nil, nil
}

type stubFeed struct {
	view         *domain.MessageView
	viewErr      error
	page         domain.FeedPage
	pageErr      error
	lastViewerID int64
	lastBefore   time.Time
	lastPageSize int
}

func (s *stubFeed) GetMessage(context.Context, int64) (*domain.MessageView, error) {
	return s.view, s.viewErr
}

func (s *stubFeed) ListFeed(_ context.Context, viewerID int64, before time.Time, pageSize int) (domain.FeedPage, error) {
	s.lastViewerID = viewerID
	s.lastBefore = before
	s.lastPageSize = pageSize
	return s.page, s.pageErr
}

func newTestServer(store *stubStore, feed *stubFeed) *Server {
	return NewServer(store, store, store, feed, zerolog.Nop())
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestCreateProfileReturnsCreated(t *testing.T) {
	server := newTestServer(&stubStore{}, &stubFeed{})

	rec := doJSON(t, server.Router(), http.MethodPost, "/api/v1/profiles", map[string]any{
		"user_name":   uuid.NewString()[:12],
		"full_name":   "Alice Example",
		"description": "hello there",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp entityID
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != 7 {
		t.Fatalf("expected id 7, got %d", resp.ID)
	}
}

func TestCreateProfileValidation(t *testing.T) {
	server := newTestServer(&stubStore{}, &stubFeed{})

	rec := doJSON(t, server.Router(), http.MethodPost, "/api/v1/profiles", map[string]any{
		"full_name": "No Username",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateMessageReturnsCreated(t *testing.T) {
	store := &stubStore{createdMsgID: 11}
	server := newTestServer(store, &stubFeed{})

	rec := doJSON(t, server.Router(), http.MethodPost, "/api/v1/messages", map[string]any{
		"user_id":             int64(5),
		"body":                "hello",
		"broadcasting_msg_id": int64(4),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if store.lastUserID != 5 || store.lastBody != "hello" {
		t.Fatalf("message fields not passed through: %+v", store)
	}
	if store.lastTargetID == nil || *store.lastTargetID != 4 {
		t.Fatalf("expected broadcast target 4, got %v", store.lastTargetID)
	}
}

func TestCreateMessageRejectsNonPositiveBroadcastTarget(t *testing.T) {
	store := &stubStore{}
	server := newTestServer(store, &stubFeed{})

	rec := doJSON(t, server.Router(), http.MethodPost, "/api/v1/messages", map[string]any{
		"user_id":             int64(5),
		"body":                "hello",
		"broadcasting_msg_id": int64(0),
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if store.createCalls != 0 {
		t.Fatalf("invalid request must not reach the store")
	}
}

func TestCreateMessageStoreFailureIsGeneric(t *testing.T) {
	store := &stubStore{createMsgErr: errors.New("pq: fk violation on broadcasting_msg_id")}
	server := newTestServer(store, &stubFeed{})

	rec := doJSON(t, server.Router(), http.MethodPost, "/api/v1/messages", map[string]any{
		"user_id": int64(5),
		"body":    "hello",
	})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Code != "internal_error" || bytes.Contains(rec.Body.Bytes(), []byte("fk violation")) {
		t.Fatalf("internal detail must not leak: %s", rec.Body.String())
	}
}

func TestCreateResponseMessageUsesPathID(t *testing.T) {
	store := &stubStore{createdMsgID: 12}
	server := newTestServer(store, &stubFeed{})

	rec := doJSON(t, server.Router(), http.MethodPost, "/api/v1/messages/33/responses", map[string]any{
		"user_id": int64(5),
		"body":    "a reply",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if store.lastOriginal != 33 {
		t.Fatalf("expected original message 33, got %d", store.lastOriginal)
	}
}

func TestGetMessageNotFound(t *testing.T) {
	server := newTestServer(&stubStore{}, &stubFeed{viewErr: domain.ErrMessageNotFound})

	rec := doJSON(t, server.Router(), http.MethodGet, "/api/v1/messages/42", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestGetMessageReturnsFlattenedView(t *testing.T) {
	body := "re: hello"
	broadcastBody := "hello"
	broadcastID := int64(1)
	server := newTestServer(&stubStore{}, &stubFeed{view: &domain.MessageView{
		ID:            2,
		UpdatedAt:     time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Body:          &body,
		UserID:        10,
		UserName:      "alice",
		FullName:      "Alice Example",
		BroadcastID:   &broadcastID,
		BroadcastBody: &broadcastBody,
	}})

	rec := doJSON(t, server.Router(), http.MethodGet, "/api/v1/messages/2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload["user_name"] != "alice" || payload["body"] != "re: hello" {
		t.Fatalf("primary fields missing: %v", payload)
	}
	if payload["message_broadcast_id"] != float64(1) || payload["message_broadcast_body"] != "hello" {
		t.Fatalf("broadcast fields missing: %v", payload)
	}
}

func TestGetMessageWithoutBroadcastOmitsFields(t *testing.T) {
	body := "hello"
	server := newTestServer(&stubStore{}, &stubFeed{view: &domain.MessageView{
		ID: 1, Body: &body, UserID: 10, UserName: "alice",
	}})

	rec := doJSON(t, server.Router(), http.MethodGet, "/api/v1/messages/1", nil)
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	for key := range payload {
		if len(key) > 17 && key[:17] == "message_broadcast" {
			t.Fatalf("expected no broadcast fields, found %s", key)
		}
	}
}

func TestListFeedParsesQuery(t *testing.T) {
	feed := &stubFeed{page: domain.FeedPage{Messages: []domain.MessageView{}}}
	server := newTestServer(&stubStore{}, feed)

	rec := doJSON(t, server.Router(), http.MethodGet, "/api/v1/feed?viewer_id=9&before=2024-05-01T12:00:00Z&page_size=5", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if feed.lastViewerID != 9 || feed.lastPageSize != 5 {
		t.Fatalf("query not passed through: viewer %d, page size %d", feed.lastViewerID, feed.lastPageSize)
	}
	want := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if !feed.lastBefore.Equal(want) {
		t.Fatalf("expected cursor %v, got %v", want, feed.lastBefore)
	}
}

func TestListFeedRejectsBadViewer(t *testing.T) {
	server := newTestServer(&stubStore{}, &stubFeed{})

	rec := doJSON(t, server.Router(), http.MethodGet, "/api/v1/feed?viewer_id=abc", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetProfileNotFound(t *testing.T) {
	server := newTestServer(&stubStore{profileErr: domain.ErrProfileNotFound}, &stubFeed{})

	rec := doJSON(t, server.Router(), http.MethodGet, "/api/v1/profiles/42", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

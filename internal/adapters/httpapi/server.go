// Package httpapi exposes the profile, follow, message and feed operations
// over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"social-feed/internal/domain"
)

// FeedReader is the read side consumed by the message and feed endpoints.
type FeedReader interface {
	GetMessage(ctx context.Context, id int64) (*domain.MessageView, error)
	ListFeed(ctx context.Context, viewerID int64, before time.Time, pageSize int) (domain.FeedPage, error)
}

// Server holds the HTTP handlers of the service.
type Server struct {
	profiles domain.ProfileRepo
	follows  domain.FollowRepo
	messages domain.MessageRepo
	feed     FeedReader
	log      zerolog.Logger
	validate *validator.Validate
}

// NewServer creates the HTTP API server.
func NewServer(profiles domain.ProfileRepo, follows domain.FollowRepo, messages domain.MessageRepo, feed FeedReader, logger zerolog.Logger) *Server {
	return &Server{
		profiles: profiles,
		follows:  follows,
		messages: messages,
		feed:     feed,
		log:      logger,
		validate: validator.New(),
	}
}

// Routes registers the API routes on a router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/api/v1/profiles", s.handleCreateProfile)
	r.Get("/api/v1/profiles/{id}", s.handleGetProfile)
	r.Get("/api/v1/profiles/{id}/follows", s.handleListFollows)
	r.Post("/api/v1/follows", s.handleCreateFollow)
	r.Post("/api/v1/messages", s.handleCreateMessage)
	r.Get("/api/v1/messages/{id}", s.handleGetMessage)
	r.Post("/api/v1/messages/{id}/responses", s.handleCreateResponseMessage)
	r.Get("/api/v1/feed", s.handleListFeed)
}

// Router returns a standalone router with all routes registered.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	s.Routes(r)
	return r
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type entityID struct {
	ID int64 `json:"id"`
}

type createProfileRequest struct {
	UserName    string  `json:"user_name" validate:"required,max=50"`
	FullName    string  `json:"full_name" validate:"required,max=100"`
	Description string  `json:"description" validate:"max=250"`
	Region      *string `json:"region" validate:"omitempty,max=50"`
	MainURL     *string `json:"main_url" validate:"omitempty,max=250"`
	Avatar      []byte  `json:"avatar"`
}

type createFollowRequest struct {
	FollowerID  int64 `json:"follower_id" validate:"required,gt=0"`
	FollowingID int64 `json:"following_id" validate:"required,gt=0,nefield=FollowerID"`
}

type createMessageRequest struct {
	UserID            int64  `json:"user_id" validate:"required,gt=0"`
	Body              string `json:"body" validate:"required,max=140"`
	BroadcastingMsgID *int64 `json:"broadcasting_msg_id" validate:"omitempty,gt=0"`
}

type createResponseMessageRequest struct {
	UserID int64  `json:"user_id" validate:"required,gt=0"`
	Body   string `json:"body" validate:"required,max=140"`
}

func (s *Server) decode(r *http.Request, v any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return err
	}
	return s.validate.Struct(v)
}

func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	var req createProfileRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	id, err := s.profiles.CreateProfile(r.Context(), domain.NewProfile{
		UserName:    req.UserName,
		FullName:    req.FullName,
		Description: req.Description,
		Region:      req.Region,
		MainURL:     req.MainURL,
		Avatar:      req.Avatar,
	})
	if err != nil {
		s.log.Error().Err(err).Msg("httpapi: create profile")
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to create profile")
		return
	}
	writeJSON(w, http.StatusCreated, entityID{ID: id})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	profile, err := s.profiles.GetProfile(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			writeError(w, http.StatusNotFound, "profile_not_found", "profile not found")
			return
		}
		s.log.Error().Err(err).Int64("profile_id", id).Msg("httpapi: get profile")
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to get profile")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleListFollows(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	follows, err := s.follows.ListFollowsByFollower(r.Context(), id)
	if err != nil {
		s.log.Error().Err(err).Int64("follower_id", id).Msg("httpapi: list follows")
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list follows")
		return
	}
	if follows == nil {
		follows = []domain.Follow{}
	}
	writeJSON(w, http.StatusOK, follows)
}

func (s *Server) handleCreateFollow(w http.ResponseWriter, r *http.Request) {
	var req createFollowRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	id, err := s.follows.CreateFollow(r.Context(), req.FollowerID, req.FollowingID)
	if err != nil {
		s.log.Error().Err(err).Msg("httpapi: create follow")
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to create follow")
		return
	}
	writeJSON(w, http.StatusCreated, entityID{ID: id})
}

func (s *Server) handleCreateMessage(w http.ResponseWriter, r *http.Request) {
	var req createMessageRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	id, err := s.messages.CreateMessage(r.Context(), req.UserID, req.Body, req.BroadcastingMsgID)
	if err != nil {
		s.log.Error().Err(err).Int64("user_id", req.UserID).Msg("httpapi: create message")
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to create message")
		return
	}
	writeJSON(w, http.StatusCreated, entityID{ID: id})
}

func (s *Server) handleGetMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	view, err := s.feed.GetMessage(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrMessageNotFound) {
			writeError(w, http.StatusNotFound, "message_not_found", "message not found")
			return
		}
		s.log.Error().Err(err).Int64("message_id", id).Msg("httpapi: get message")
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to get message")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleCreateResponseMessage(w http.ResponseWriter, r *http.Request) {
	originalID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	var req createResponseMessageRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	id, err := s.messages.CreateResponseMessage(r.Context(), req.UserID, req.Body, originalID)
	if err != nil {
		s.log.Error().Err(err).Int64("original_msg_id", originalID).Msg("httpapi: create response message")
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to create response message")
		return
	}
	writeJSON(w, http.StatusCreated, entityID{ID: id})
}

func (s *Server) handleListFeed(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	viewerID, err := strconv.ParseInt(query.Get("viewer_id"), 10, 64)
	if err != nil || viewerID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "viewer_id must be a positive integer")
		return
	}

	before := time.Now().UTC()
	if raw := query.Get("before"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "before must be an RFC3339 timestamp")
			return
		}
		before = parsed
	}

	pageSize := 0
	if raw := query.Get("page_size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_request", "page_size must be a positive integer")
			return
		}
		pageSize = parsed
	}

	page, err := s.feed.ListFeed(r.Context(), viewerID, before, pageSize)
	if err != nil {
		s.log.Error().Err(err).Int64("viewer_id", viewerID).Msg("httpapi: list feed")
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list feed")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func parseIDParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid "+name)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: message, Code: code})
}

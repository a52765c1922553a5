package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/Rahima097/find-Roommate-server/internal/entity"
	"github.com/Rahima097/find-Roommate-server/internal/platform/logger"
	"github.com/Rahima097/find-Roommate-server/internal/port/repository"
	"github.com/Rahima097/find-Roommate-server/internal/usecase"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const (
	msgSelfLike       = "You cannot like your own listing."
	msgInvalidID      = "invalid listing id"
	msgInvalidBody    = "invalid request body"
	msgInvalidEmail   = "invalid email parameter"
	msgNotFound       = "listing not found"
	msgInternal       = "internal server error"
	defaultMaxBodyLen = 1 << 20
)

type ListingService interface {
	ListAll(ctx context.Context) ([]*entity.Listing, error)
	ListAvailable(ctx context.Context, limit int64) ([]*entity.Listing, error)
	ListByOwner(ctx context.Context, email string) ([]*entity.Listing, error)
	ListByOwnerNewestFirst(ctx context.Context, email string) ([]*entity.Listing, error)
	GetListing(ctx context.Context, id string) (*entity.Listing, error)
	CreateListing(ctx context.Context, listing *entity.Listing) (*entity.InsertResult, error)
	ReplaceListing(ctx context.Context, id string, fields entity.ListingUpdate) (*entity.UpdateResult, error)
	DeleteListing(ctx context.Context, id string) (*entity.DeleteResult, error)
	SetLikes(ctx context.Context, id string, likes int64) (*entity.UpdateResult, error)
	CountListings(ctx context.Context) (int64, error)
}

type EngagementService interface {
	LikeTracked(ctx context.Context, listingID, likerEmail string) (*entity.LikeOutcome, error)
	HasLiked(ctx context.Context, listingID, email string) (bool, error)
	ReconcileLikes(ctx context.Context, listingID string) (int64, error)
}

type ContactService interface {
	Submit(ctx context.Context, fields map[string]interface{}) (string, error)
}

// PingFunc reports the health of one dependency.
type PingFunc func(ctx context.Context) error

type Handler struct {
	listings   ListingService
	engagement EngagementService
	contacts   ContactService
	checks     map[string]PingFunc
	maxBody    int64
	logger     *logger.Logger
}

func NewHandler(ls ListingService, es EngagementService, cs ContactService, checks map[string]PingFunc, maxBody int64, log *logger.Logger) *Handler {
	if maxBody <= 0 {
		maxBody = defaultMaxBodyLen
	}
	return &Handler{
		listings:   ls,
		engagement: es,
		contacts:   cs,
		checks:     checks,
		maxBody:    maxBody,
		logger:     log.Named("HTTPHandler"),
	}
}

type messageResponse struct {
	Message string `json:"message"`
}

// JSON writes data with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Warn("failed to write response", zap.Error(err))
	}
}

func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, messageResponse{Message: message})
}

// fail maps a use case error onto a status code. Anything unrecognised is a
// 500 and gets logged.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, usecase.ErrSelfLikeNotAllowed):
		h.Error(w, http.StatusBadRequest, msgSelfLike)
	case errors.Is(err, repository.ErrInvalidIdentifier):
		h.Error(w, http.StatusBadRequest, msgInvalidID)
	case errors.Is(err, usecase.ErrInvalidInput), errors.Is(err, entity.ErrInvalidListing):
		h.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		h.Error(w, http.StatusNotFound, msgNotFound)
	case errors.Is(err, usecase.ErrReconcileConflict):
		h.Error(w, http.StatusConflict, usecase.ErrReconcileConflict.Error())
	default:
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err))
		h.Error(w, http.StatusInternalServerError, msgInternal)
	}
}

// decode reads a JSON body of at most maxBody bytes into v.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	return json.NewDecoder(r.Body).Decode(v)
}

// emailParam returns the decoded path parameter key. chi matches on the raw
// path when the client escaped it, so "b%40x.com" arrives still encoded.
func emailParam(r *http.Request, key string) (string, error) {
	return url.PathUnescape(chi.URLParam(r, key))
}

func (h *Handler) Root(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("find roommate server running..."))
}

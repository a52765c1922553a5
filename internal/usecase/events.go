package usecase

import (
	"context"

	"github.com/Rahima097/find-Roommate-server/internal/platform/logger"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

const (
	SubjectListingCreated = "roommates.created"
	SubjectListingUpdated = "roommates.updated"
	SubjectListingDeleted = "roommates.deleted"
	SubjectListingLiked   = "roommates.liked"
	SubjectContactCreated = "contact.received"
)

var tracer = otel.Tracer("find-roommate-server/usecase")

type EventPublisher interface {
	Publish(ctx context.Context, subject string, payload interface{}) error
}

type ListingEvent struct {
	ListingID string `json:"listingId"`
	Email     string `json:"email,omitempty"`
}

type LikeEvent struct {
	ListingID string `json:"listingId"`
	UserEmail string `json:"userEmail"`
	Likes     int64  `json:"likes"`
}

type ContactEvent struct {
	ContactID string `json:"contactId"`
}

// publish is best effort: a failed publish is logged and never fails the
// operation that produced the event.
func publish(ctx context.Context, p EventPublisher, log *logger.Logger, subject string, payload interface{}) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, subject, payload); err != nil {
		log.Warn("failed to publish event", zap.String("subject", subject), zap.Error(err))
	}
}

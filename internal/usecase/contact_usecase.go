package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Rahima097/find-Roommate-server/internal/entity"
	"github.com/Rahima097/find-Roommate-server/internal/platform/logger"
	"github.com/Rahima097/find-Roommate-server/internal/platform/metrics"
	"github.com/Rahima097/find-Roommate-server/internal/port/repository"
	"go.uber.org/zap"
)

const (
	contactResultStored = "stored"
	contactResultFailed = "failed"

	contactNotifySubject = "New contact message"
)

// Notifier delivers operator notifications. email.Sender satisfies it.
type Notifier interface {
	SendEmail(to []string, subject, body string) error
}

type ContactUseCase struct {
	contacts  repository.ContactRepository
	notifier  Notifier
	notifyTo  string
	publisher EventPublisher
	metrics   *metrics.MetricsManager
	logger    *logger.Logger
	now       func() time.Time

	wg sync.WaitGroup
}

// NewContactUseCase wires the contact intake. notifier may be nil, and no
// mail is sent while notifyTo is empty.
func NewContactUseCase(
	cr repository.ContactRepository,
	n Notifier,
	notifyTo string,
	pub EventPublisher,
	m *metrics.MetricsManager,
	log *logger.Logger,
) *ContactUseCase {
	return &ContactUseCase{
		contacts:  cr,
		notifier:  n,
		notifyTo:  notifyTo,
		publisher: pub,
		metrics:   m,
		logger:    log.Named("ContactUseCase"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Submit stores the submitted fields stamped with the server time and the
// unread status, and returns the new message id.
func (uc *ContactUseCase) Submit(ctx context.Context, fields map[string]interface{}) (string, error) {
	ctx, span := tracer.Start(ctx, "ContactUseCase.Submit")
	defer span.End()

	if fields == nil {
		fields = map[string]interface{}{}
	}
	msg := &entity.ContactMessage{
		Fields:    fields,
		CreatedAt: uc.now(),
		Status:    entity.ContactStatusUnread,
	}

	id, err := uc.contacts.Create(ctx, msg)
	if err != nil {
		span.RecordError(err)
		uc.metrics.ObserveContact(contactResultFailed)
		uc.logger.Error("error saving contact message", zap.Error(err))
		return "", fmt.Errorf("ContactUseCase.Submit: %w", err)
	}
	uc.metrics.ObserveContact(contactResultStored)

	uc.notify(msg)
	publish(ctx, uc.publisher, uc.logger, SubjectContactCreated, ContactEvent{ContactID: id})
	return id, nil
}

// notify mails the operator in the background so SMTP latency never delays
// the response.
func (uc *ContactUseCase) notify(msg *entity.ContactMessage) {
	if uc.notifier == nil || uc.notifyTo == "" {
		return
	}
	uc.wg.Add(1)
	go func() {
		defer uc.wg.Done()
		if err := uc.notifier.SendEmail([]string{uc.notifyTo}, contactNotifySubject, contactMailBody(msg)); err != nil {
			uc.logger.Warn("contact notification not sent", zap.String("contact_id", msg.ID), zap.Error(err))
		}
	}()
}

// Wait blocks until pending notifications are done.
func (uc *ContactUseCase) Wait() {
	uc.wg.Wait()
}

func contactMailBody(msg *entity.ContactMessage) string {
	keys := make([]string, 0, len(msg.Fields))
	for k := range msg.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "Contact message %s received at %s\n\n", msg.ID, msg.CreatedAt.Format(time.RFC3339))
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %v\n", k, msg.Fields[k])
	}
	return b.String()
}

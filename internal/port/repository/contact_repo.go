package repository

import (
	"context"

	"github.com/Rahima097/find-Roommate-server/internal/entity"
)

type ContactRepository interface {
	Create(ctx context.Context, msg *entity.ContactMessage) (string, error)
}

package services

import (
	"context"
	"log"

	"github.com/Visionatedigital/M-and-T/models"
	"github.com/Visionatedigital/M-and-T/store"
	"gorm.io/gorm"
)

type AuditService struct {
	logs *store.Table[models.AuditLog]
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{logs: store.NewTable[models.AuditLog](db)}
}

// Record writes entry. A failed audit write is logged, never returned: the
// operation it describes has already happened.
func (s *AuditService) Record(ctx context.Context, entry *models.AuditLog) {
	if err := s.logs.Insert(ctx, entry); err != nil {
		log.Printf("Failed to write audit log %s %s: %v", entry.Action, entry.Resource, err)
	}
}

func (s *AuditService) Recent(ctx context.Context, limit, offset int) ([]models.AuditLog, error) {
	f := store.Filter{}.Newest("created_at").Take(limit)
	f.Offset = offset
	return s.logs.Select(ctx, f)
}

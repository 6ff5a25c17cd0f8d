package postgres

import (
	"context"

	"n8n-chat-relay/internal/domain"
	"n8n-chat-relay/internal/ports/output"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Compile-time check to ensure RelayAuditRepository implements RelayAuditRepository interface
var _ output.RelayAuditRepository = (*RelayAuditRepository)(nil)

const defaultAuditListLimit = 100

// RelayAuditRepository struct - Secondary/Driven adapter for PostgreSQL
type RelayAuditRepository struct {
	dbGorm *gorm.DB
}

// NewRelayAuditRepository func - Creates new PostgreSQL audit repository and migrates its table
func NewRelayAuditRepository(dbGorm *gorm.DB) (*RelayAuditRepository, error) {
	logrus.Info("Migrate database ...")
	if err := domain.MigrateDatabase(dbGorm); err != nil {
		return nil, err
	}
	return &RelayAuditRepository{
		dbGorm: dbGorm,
	}, nil
}

// Record func - Inserts one relay audit row
func (p *RelayAuditRepository) Record(ctx context.Context, audit *domain.RelayAudit) error {
	if err := p.dbGorm.WithContext(ctx).Create(audit).Error; err != nil {
		logrus.Errorln(err)
		return err
	}
	return nil
}

// ListByConversation func - Returns the newest audit rows of one conversation
func (p *RelayAuditRepository) ListByConversation(ctx context.Context, conversationID string, limit int) ([]domain.RelayAudit, error) {
	if limit <= 0 {
		limit = defaultAuditListLimit
	}

	var audits []domain.RelayAudit
	err := p.dbGorm.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Limit(limit).
		Find(&audits).Error
	if err != nil {
		logrus.Errorln(err)
		return nil, err
	}
	return audits, nil
}

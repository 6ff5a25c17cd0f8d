package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RelayKind type
type RelayKind string

const (
	// RelayKindChat const
	RelayKindChat RelayKind = "chat"
	// RelayKindTrigger const
	RelayKindTrigger RelayKind = "trigger"
	// RelayKindTest const
	RelayKindTest RelayKind = "test"
)

// RelayStatus type
type RelayStatus string

const (
	// RelayStatusSuccess const
	RelayStatusSuccess RelayStatus = "SUCCESS"
	// RelayStatusFailure const
	RelayStatusFailure RelayStatus = "FAILURE"
)

// RelayAudit struct - One recorded round trip to the automation webhook
type RelayAudit struct {
	ID             *uuid.UUID  `gorm:"type:uuid;primary_key;"`
	RequestID      string      `gorm:"type:varchar(64);index"`
	ConversationID string      `gorm:"type:varchar(64);index"`
	Kind           RelayKind   `gorm:"type:varchar(16);not null;"`
	Status         RelayStatus `gorm:"type:varchar(16);not null;"`
	DurationMs     int64       `gorm:"type:bigint"`
	Error          string      `gorm:"type:text"`
	CreatedAt      *time.Time  `gorm:"type:timestamp"`
}

// TableName func
func (a *RelayAudit) TableName() string {
	return "relay_audits"
}

// BeforeCreate hook - generates UUID before creating
func (a *RelayAudit) BeforeCreate(tx *gorm.DB) (err error) {
	id, err := uuid.NewRandom() // v4
	if err != nil {
		return err
	}
	a.ID = &id
	return nil
}

// MigrateDatabase func - Auto-migrate database schema
func MigrateDatabase(db *gorm.DB) error {
	if db == nil {
		return ErrDatabaseUnavailable
	}
	return db.AutoMigrate(&RelayAudit{})
}

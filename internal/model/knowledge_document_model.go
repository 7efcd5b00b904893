package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type KnowledgeDocument struct {
	Id           uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Title        string         `gorm:"type:varchar(255);not null"`
	Content      string         `gorm:"type:text"`
	Category     string         `gorm:"type:varchar(64);index"`
	DocumentType string         `gorm:"type:varchar(64);index"`
	Course       string         `gorm:"type:varchar(128);index"`
	Campus       string         `gorm:"type:varchar(128)"`
	Status       string         `gorm:"type:varchar(64)"`
	OrgId        uuid.UUID      `gorm:"type:uuid;index"`
	Metadata     datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime"`
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

func (KnowledgeDocument) TableName() string {
	return "knowledge_documents"
}

package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Lead struct {
	Id          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string         `gorm:"type:varchar(255);not null"`
	Email       string         `gorm:"type:varchar(255)"`
	Course      string         `gorm:"type:varchar(128);index"`
	Campus      string         `gorm:"type:varchar(128)"`
	Status      string         `gorm:"type:varchar(64);index"`
	Stage       string         `gorm:"type:varchar(64)"`
	Score       float64        `gorm:"default:0"`
	Intake      string         `gorm:"type:varchar(32)"`
	Source      string         `gorm:"type:varchar(64)"`
	LastTouch   *time.Time     `gorm:""`
	OwnerId     uuid.UUID      `gorm:"type:uuid;index"`
	OrgId       uuid.UUID      `gorm:"type:uuid;index"`
	Preferences datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (Lead) TableName() string {
	return "leads"
}

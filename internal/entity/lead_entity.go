package entity

import (
	"time"

	"github.com/google/uuid"
)

type Lead struct {
	Id          uuid.UUID
	Name        string
	Email       string
	Course      string
	Campus      string
	Status      string
	Stage       string
	Score       float64
	Intake      string
	Source      string
	LastTouch   *time.Time
	OwnerId     uuid.UUID
	OrgId       uuid.UUID
	Preferences map[string]interface{}
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

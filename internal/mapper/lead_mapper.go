package mapper

import (
	"encoding/json"
	"time"

	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/entity"
	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/model"

	"gorm.io/datatypes"
)

type LeadMapper struct{}

func NewLeadMapper() *LeadMapper {
	return &LeadMapper{}
}

func (m *LeadMapper) ToEntity(l *model.Lead) *entity.Lead {
	if l == nil {
		return nil
	}

	var updatedAt *time.Time
	if !l.UpdatedAt.IsZero() {
		t := l.UpdatedAt
		updatedAt = &t
	}

	var preferences map[string]interface{}
	if len(l.Preferences) > 0 {
		_ = json.Unmarshal(l.Preferences, &preferences)
	}

	return &entity.Lead{
		Id:          l.Id,
		Name:        l.Name,
		Email:       l.Email,
		Course:      l.Course,
		Campus:      l.Campus,
		Status:      l.Status,
		Stage:       l.Stage,
		Score:       l.Score,
		Intake:      l.Intake,
		Source:      l.Source,
		LastTouch:   l.LastTouch,
		OwnerId:     l.OwnerId,
		OrgId:       l.OrgId,
		Preferences: preferences,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   updatedAt,
	}
}

func (m *LeadMapper) ToModel(e *entity.Lead) *model.Lead {
	if e == nil {
		return nil
	}

	var updatedAt time.Time
	if e.UpdatedAt != nil {
		updatedAt = *e.UpdatedAt
	}

	var preferences datatypes.JSON
	if len(e.Preferences) > 0 {
		if raw, err := json.Marshal(e.Preferences); err == nil {
			preferences = raw
		}
	}

	return &model.Lead{
		Id:          e.Id,
		Name:        e.Name,
		Email:       e.Email,
		Course:      e.Course,
		Campus:      e.Campus,
		Status:      e.Status,
		Stage:       e.Stage,
		Score:       e.Score,
		Intake:      e.Intake,
		Source:      e.Source,
		LastTouch:   e.LastTouch,
		OwnerId:     e.OwnerId,
		OrgId:       e.OrgId,
		Preferences: preferences,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   updatedAt,
	}
}

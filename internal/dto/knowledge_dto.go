package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateKnowledgeRequest struct {
	Title        string                 `json:"title" validate:"required,min=1,max=255"`
	Content      string                 `json:"content" validate:"required,min=1"`
	Category     string                 `json:"category,omitempty" validate:"omitempty,max=64"`
	DocumentType string                 `json:"document_type,omitempty" validate:"omitempty,max=64"`
	Course       string                 `json:"course,omitempty" validate:"omitempty,max=128"`
	Campus       string                 `json:"campus,omitempty" validate:"omitempty,max=128"`
	Status       string                 `json:"status,omitempty" validate:"omitempty,max=64"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

type KnowledgeDocumentResponse struct {
	Id           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Category     string    `json:"category,omitempty"`
	DocumentType string    `json:"document_type,omitempty"`
	Course       string    `json:"course,omitempty"`
	Campus       string    `json:"campus,omitempty"`
	Status       string    `json:"status,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type ListKnowledgeResponse struct {
	Documents []KnowledgeDocumentResponse `json:"documents"`
	Total     int64                       `json:"total"`
}

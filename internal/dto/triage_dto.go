package dto

import "github.com/google/uuid"

type TriageRequest struct {
	LeadIds []uuid.UUID `json:"lead_ids" validate:"required,min=1,max=50"`
}

type TriagedLeadDTO struct {
	LeadId  uuid.UUID   `json:"lead_id"`
	Name    string      `json:"name"`
	Score   float64     `json:"score"`
	Band    string      `json:"band"` // "hot" | "warm" | "cold"
	Reasons []string    `json:"reasons,omitempty"`
	Actions []ActionDTO `json:"actions"`
}

type TriageResponse struct {
	Results []TriagedLeadDTO `json:"results"`
}

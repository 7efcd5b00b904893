package dto

type RAGQueryRequest struct {
	Query        string `json:"query" validate:"required,min=1,max=2000"`
	DocumentType string `json:"document_type,omitempty"`
	Category     string `json:"category,omitempty"`
	Course       string `json:"course,omitempty"`
	Campus       string `json:"campus,omitempty"`
	Status       string `json:"status,omitempty"`
	TopK         int    `json:"top_k,omitempty" validate:"omitempty,min=1,max=20"`
}

type RAGQueryResponse struct {
	AnswerMarkdown string      `json:"answer_markdown"`
	Sources        []SourceDTO `json:"sources"`
}

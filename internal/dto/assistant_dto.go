package dto

type RouterRequest struct {
	Query          string                 `json:"query" validate:"required,min=1,max=2000"`
	Context        map[string]interface{} `json:"context,omitempty"`
	UICapabilities []string               `json:"ui_capabilities,omitempty"`
	SessionId      string                 `json:"session_id,omitempty"`
}

type ActionDTO struct {
	Label  string `json:"label"`
	Action string `json:"action"`
}

type SourceDTO struct {
	Id    string `json:"id"`
	Title string `json:"title"`
	Rank  int    `json:"rank"`
}

type ModalDTO struct {
	Type  string                 `json:"type"`
	Title string                 `json:"title,omitempty"`
	Props map[string]interface{} `json:"props,omitempty"`
}

type RouterResponse struct {
	Kind           string      `json:"kind"` // "conversational" | "modal"
	AnswerMarkdown string      `json:"answer_markdown,omitempty"`
	Modal          *ModalDTO   `json:"modal,omitempty"`
	Actions        []ActionDTO `json:"actions"`
	Sources        []SourceDTO `json:"sources,omitempty"`
	Intent         string      `json:"intent,omitempty"`
	Confidence     float64     `json:"confidence,omitempty"`
}

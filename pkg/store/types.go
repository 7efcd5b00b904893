package store

import "time"

// Candidate represents a retrieved knowledge unit before ranking.
// Request-scoped: produced by the data store, discarded at response.
type Candidate struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Content         string  `json:"content"`
	Category        string  `json:"category"`
	DocumentType    string  `json:"document_type"`
	SimilarityScore float64 `json:"similarity_score"` // raw score in [0,1]
}

// RankedCandidate is a Candidate annotated with its final rank position.
// Ordering is stable and deterministic given identical inputs.
type RankedCandidate struct {
	Candidate
	Rank int `json:"rank"`
}

// ConversationTurn is an appended-only entry in a session's rolling window.
// Text is sanitized before storage; the turn is read-only after append.
type ConversationTurn struct {
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// ActionSpec is a normalized UI action. Action is always one of the closed
// enumeration in pkg/rag/actions; Label is always human-readable.
type ActionSpec struct {
	Label  string `json:"label"`
	Action string `json:"action"`
}

// Classification is the result of intent routing for one request.
// Never cached across sessions: confidence depends on conversational context.
type Classification struct {
	Intent     string            `json:"intent"`
	Confidence float64           `json:"confidence"`
	Meta       map[string]string `json:"meta,omitempty"`
}

// Response kinds returned by the router.
const (
	KindConversational = "conversational"
	KindModal          = "modal"
)

// Session carries the continuity state the router keeps between requests:
// the last resolved intent and whatever answer contract is in force.
// Held in memory only and expires with the conversation.
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	OrgID        string    `json:"org_id"`
	LastIntent   string    `json:"last_intent"`
	ContractMode string    `json:"contract_mode,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

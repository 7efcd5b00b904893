package factory

import (
	"fmt"

	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/llm"
	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/llm/ollama"
)

// NewLLMProvider resolves the configured generation backend. An empty
// providerType disables generation entirely; callers treat a nil provider
// as "answer from deterministic templates".
func NewLLMProvider(providerType, modelName, baseURL string) (llm.LLMProvider, error) {
	switch providerType {
	case "":
		return nil, nil
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}

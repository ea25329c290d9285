package providers

import (
	"fmt"
	"strings"
)

type ProviderRef struct {
	Raw      string
	Name     string
	KeyAlias string
}

// ParseProviderList splits a "name|name:alias|..." config string into refs.
func ParseProviderList(raw string) []ProviderRef {
	parts := strings.Split(raw, "|")
	out := make([]ProviderRef, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		ref := ProviderRef{Raw: p}
		if strings.Contains(p, ":") {
			x := strings.SplitN(p, ":", 2)
			ref.Name = strings.TrimSpace(x[0])
			ref.KeyAlias = strings.TrimSpace(x[1])
		} else {
			ref.Name = p
		}
		out = append(out, ref)
	}
	return out
}

type namedLLM struct {
	Ref      ProviderRef
	Provider LLMProvider
}

type namedEmbed struct {
	Ref      ProviderRef
	Provider EmbeddingProvider
}

type namedSearch struct {
	Ref      ProviderRef
	Provider SearchProvider
}

// Manager holds the configured external capabilities. Lists are ordered; the
// caller walks them for failover.
type Manager struct {
	llm    []namedLLM
	embed  []namedEmbed
	search []namedSearch
}

type ManagerConfig struct {
	LLMProviders    string
	EmbedProviders  string
	SearchProviders string
	EmbedDim        int
}

func NewManager(cfg ManagerConfig) (*Manager, error) {
	m := &Manager{}
	for _, ref := range ParseProviderList(cfg.LLMProviders) {
		p, err := buildProvider(ref, cfg.EmbedDim)
		if err != nil {
			return nil, err
		}
		llm, ok := p.(LLMProvider)
		if !ok {
			return nil, fmt.Errorf("provider %s does not support llm generation", ref.Raw)
		}
		m.llm = append(m.llm, namedLLM{Ref: ref, Provider: llm})
	}
	for _, ref := range ParseProviderList(cfg.EmbedProviders) {
		p, err := buildProvider(ref, cfg.EmbedDim)
		if err != nil {
			return nil, err
		}
		embed, ok := p.(EmbeddingProvider)
		if !ok {
			return nil, fmt.Errorf("provider %s does not support embeddings", ref.Raw)
		}
		m.embed = append(m.embed, namedEmbed{Ref: ref, Provider: embed})
	}
	for _, ref := range ParseProviderList(cfg.SearchProviders) {
		p, err := buildProvider(ref, cfg.EmbedDim)
		if err != nil {
			return nil, err
		}
		search, ok := p.(SearchProvider)
		if !ok {
			return nil, fmt.Errorf("provider %s does not support search", ref.Raw)
		}
		m.search = append(m.search, namedSearch{Ref: ref, Provider: search})
	}
	if len(m.llm) == 0 {
		m.llm = []namedLLM{{Ref: ProviderRef{Raw: "mock", Name: "mock"}, Provider: NewMockProvider(cfg.EmbedDim)}}
	}
	if len(m.embed) == 0 {
		m.embed = []namedEmbed{{Ref: ProviderRef{Raw: "mock", Name: "mock"}, Provider: NewMockProvider(cfg.EmbedDim)}}
	}
	return m, nil
}

func (m *Manager) LLMByIndex(i int) (LLMProvider, ProviderRef) {
	if i < 0 || i >= len(m.llm) {
		i = 0
	}
	return m.llm[i].Provider, m.llm[i].Ref
}

func (m *Manager) EmbedByIndex(i int) (EmbeddingProvider, ProviderRef) {
	if i < 0 || i >= len(m.embed) {
		i = 0
	}
	return m.embed[i].Provider, m.embed[i].Ref
}

func (m *Manager) LLMCount() int    { return len(m.llm) }
func (m *Manager) EmbedCount() int  { return len(m.embed) }
func (m *Manager) SearchCount() int { return len(m.search) }

// SearchChain returns the configured search providers in failover order.
// The slice may be empty when URL discovery is disabled.
func (m *Manager) SearchChain() []SearchProvider {
	out := make([]SearchProvider, 0, len(m.search))
	for i := range m.search {
		out = append(out, m.search[i].Provider)
	}
	return out
}

func buildProvider(ref ProviderRef, dim int) (any, error) {
	switch strings.ToLower(ref.Name) {
	case "mock":
		return NewMockProvider(dim), nil
	case "openai":
		return NewOpenAIProvider(ref.KeyAlias), nil
	case "groq":
		return NewGroqProvider(ref.KeyAlias), nil
	case "mistral":
		return NewMistralProvider(ref.KeyAlias), nil
	case "ollama":
		return NewOllamaEmbeddingProvider(ref.KeyAlias), nil
	case "tavily":
		return NewTavilyProvider(ref.KeyAlias), nil
	case "crossref":
		return NewCrossrefProvider(), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", ref.Name)
	}
}

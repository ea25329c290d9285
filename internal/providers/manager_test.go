package providers

import "testing"

func TestParseProviderList(t *testing.T) {
	refs := ParseProviderList("mistral|openai:team_a| groq ")
	if len(refs) != 3 {
		t.Fatalf("expected 3 refs, got %d", len(refs))
	}
	if refs[0].Name != "mistral" || refs[0].KeyAlias != "" {
		t.Fatalf("unexpected first ref: %+v", refs[0])
	}
	if refs[1].Name != "openai" || refs[1].KeyAlias != "team_a" {
		t.Fatalf("unexpected second ref: %+v", refs[1])
	}
	if refs[2].Name != "groq" {
		t.Fatalf("unexpected third ref: %+v", refs[2])
	}
}

func TestNewManagerDefaultsToMock(t *testing.T) {
	m, err := NewManager(ManagerConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if m.LLMCount() != 1 || m.EmbedCount() != 1 {
		t.Fatalf("expected mock defaults, got llm=%d embed=%d", m.LLMCount(), m.EmbedCount())
	}
	if m.SearchCount() != 0 {
		t.Fatalf("expected search to stay empty, got %d", m.SearchCount())
	}
}

func TestNewManagerRejectsUnknownProvider(t *testing.T) {
	if _, err := NewManager(ManagerConfig{LLMProviders: "nope"}); err == nil {
		t.Fatal("expected error for unsupported provider")
	}
}

func TestNewManagerBuildsSearchChain(t *testing.T) {
	m, err := NewManager(ManagerConfig{SearchProviders: "crossref|tavily"})
	if err != nil {
		t.Fatal(err)
	}
	if got := len(m.SearchChain()); got != 2 {
		t.Fatalf("expected 2 search providers, got %d", got)
	}
}

package providers

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"strings"
)

// MockProvider is a deterministic stand-in for every capability, used in
// tests and offline runs.
type MockProvider struct {
	dim int
}

func NewMockProvider(dim int) *MockProvider {
	if dim <= 0 {
		dim = 1536
	}
	return &MockProvider{dim: dim}
}

func (m *MockProvider) Embed(ctx context.Context, req EmbedRequest) ([][]float32, ProviderInfo, error) {
	_ = ctx
	dim := req.Dimension
	if dim <= 0 {
		dim = m.dim
	}
	vectors := make([][]float32, 0, len(req.Inputs))
	for _, input := range req.Inputs {
		vectors = append(vectors, deterministicVector(input, dim))
	}
	return vectors, ProviderInfo{Name: "mock", Model: fmt.Sprintf("mock-embed-%d", dim), Key: "mock"}, nil
}

func (m *MockProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	_ = ctx
	info := ProviderInfo{Name: "mock", Model: "mock-llm-v1", Key: "mock"}
	op := strings.ToLower(req.Operation)
	switch {
	case strings.Contains(op, "parse"):
		// Empty array forces the caller onto its regex fallback, which is
		// deterministic and does not hallucinate entries.
		return GenerateResponse{Text: "[]"}, info, nil
	case strings.Contains(op, "classify"):
		return GenerateResponse{Text: classifyByHints(req.Prompt)}, info, nil
	case strings.Contains(op, "suggest"):
		return GenerateResponse{Text: ""}, info, nil
	default:
		return GenerateResponse{Text: "Mock response."}, info, nil
	}
}

func (m *MockProvider) Search(ctx context.Context, req SearchRequest) ([]SearchResult, ProviderInfo, error) {
	_ = ctx
	info := ProviderInfo{Name: "mock", Model: "mock-search-v1", Key: "mock"}
	if strings.TrimSpace(req.Query) == "" {
		return nil, info, nil
	}
	return nil, info, nil
}

func classifyByHints(prompt string) string {
	low := strings.ToLower(prompt)
	switch {
	case strings.Contains(low, "arxiv"), strings.Contains(low, "doi"), strings.Contains(low, "proceedings"):
		return "Research Paper"
	case strings.Contains(low, "youtube"), strings.Contains(low, "youtu.be"):
		return "YouTube Video"
	case strings.Contains(low, "news"):
		return "News Article"
	default:
		return "Unknown"
	}
}

func deterministicVector(input string, dim int) []float32 {
	vec := make([]float32, dim)
	seed := []byte(input)
	if len(seed) == 0 {
		seed = []byte("empty")
	}
	for i := 0; i < dim; i++ {
		h := sha256.Sum256(append(seed, byte(i%251)))
		u := binary.BigEndian.Uint32(h[:4])
		v := float32(u%2000)/1000.0 - 1.0
		vec[i] = v
	}
	return normalize(vec)
}

func normalize(v []float32) []float32 {
	var sum float32
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return v
	}
	inv := float32(1.0 / (float64(sum) + 1e-9))
	for i := range v {
		v[i] *= inv
	}
	return v
}

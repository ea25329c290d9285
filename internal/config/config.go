package config

import (
	"os"
	"strconv"
)

type Config struct {
	APIAddr           string
	TemporalAddress   string
	TemporalTaskQueue string
	PostgresURL       string
	DataInRoot        string
	DataOutRoot       string

	ChunkSize       int
	ChunkOverlap    int
	RetrieveTopK    int
	MinSectionScore float64

	LLMProviders    string
	EmbedProviders  string
	SearchProviders string

	EnrichWorkers     int
	VerifyWorkers     int
	ProbeTimeoutSecs  int
	VerifyTimeoutSecs int
	ProbeRatePerSec   float64

	SuggestURLs   bool
	AuthAsWorking bool
}

func Load() Config {
	return Config{
		APIAddr:           getenv("REFCHECK_API_ADDR", ":8002"),
		TemporalAddress:   getenv("REFCHECK_TEMPORAL_ADDRESS", "localhost:7233"),
		TemporalTaskQueue: getenv("REFCHECK_TEMPORAL_TASK_QUEUE", "refcheck"),
		PostgresURL:       getenv("REFCHECK_POSTGRES_URL", ""),
		DataInRoot:        getenv("REFCHECK_DATA_IN", "./data/in"),
		DataOutRoot:       getenv("REFCHECK_DATA_OUT", "./data/out"),
		ChunkSize:         getenvInt("REFCHECK_CHUNK_SIZE", 1200),
		ChunkOverlap:      getenvInt("REFCHECK_CHUNK_OVERLAP", 180),
		RetrieveTopK:      getenvInt("REFCHECK_RETRIEVE_TOP_K", 4),
		MinSectionScore:   getenvFloat("REFCHECK_MIN_SECTION_SCORE", 0.1),
		LLMProviders:      getenv("REFCHECK_LLM_PROVIDERS", "mock"),
		EmbedProviders:    getenv("REFCHECK_EMBED_PROVIDERS", "mock"),
		SearchProviders:   getenv("REFCHECK_SEARCH_PROVIDERS", "crossref"),
		EnrichWorkers:     getenvInt("REFCHECK_ENRICH_WORKERS", 5),
		VerifyWorkers:     getenvInt("REFCHECK_VERIFY_WORKERS", 10),
		ProbeTimeoutSecs:  getenvInt("REFCHECK_PROBE_TIMEOUT_SECONDS", 10),
		VerifyTimeoutSecs: getenvInt("REFCHECK_VERIFY_TIMEOUT_SECONDS", 120),
		ProbeRatePerSec:   getenvFloat("REFCHECK_PROBE_RATE_PER_SEC", 8),
		SuggestURLs:       getenvBool("REFCHECK_SUGGEST_URLS", true),
		AuthAsWorking:     getenvBool("REFCHECK_AUTH_AS_WORKING", false),
	}
}

func getenv(k, fallback string) string {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	return v
}

func getenvInt(k string, fallback int) int {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvFloat(k string, fallback float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getenvBool(k string, fallback bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

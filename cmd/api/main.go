package main

import (
	"log"
	"net/http"

	"refcheck/internal/api"
	"refcheck/internal/config"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()
	h := api.NewServer(cfg)
	log.Printf("refcheck api listening on %s llm_providers=%q search_providers=%q", cfg.APIAddr, cfg.LLMProviders, cfg.SearchProviders)
	if err := http.ListenAndServe(cfg.APIAddr, h.Routes()); err != nil {
		log.Fatal(err)
	}
}

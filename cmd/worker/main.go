package main

import (
	"context"
	"log"
	"time"

	"refcheck/internal/activities"
	"refcheck/internal/config"
	"refcheck/internal/storage"
	"refcheck/internal/workflows"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()
	c, err := client.Dial(client.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		log.Fatal(err)
	}
	defer c.Close()

	w := worker.New(c, cfg.TemporalTaskQueue, worker.Options{})
	workflows.Register(w)

	// Postgres only backs the capability call audit log; the pipeline runs
	// without it.
	var db *storage.DB
	if cfg.PostgresURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		db, err = storage.NewDB(ctx, cfg.PostgresURL)
		cancel()
		if err != nil {
			log.Fatal(err)
		}
		defer db.Close()
		ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		err = storage.NewAuditRepo(db).EnsureSchema(ctx)
		cancel()
		if err != nil {
			log.Fatal(err)
		}
	}

	a, err := activities.New(cfg, db)
	if err != nil {
		log.Fatal(err)
	}
	activities.Register(w, a)

	log.Printf("refcheck worker listening on %s queue=%s llm_providers=%q embed_providers=%q search_providers=%q",
		cfg.TemporalAddress, cfg.TemporalTaskQueue, cfg.LLMProviders, cfg.EmbedProviders, cfg.SearchProviders)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatal(err)
	}
}

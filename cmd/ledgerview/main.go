package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/MaWoo96/ledgerview/internal/config"
	"github.com/MaWoo96/ledgerview/internal/llm"
	"github.com/MaWoo96/ledgerview/internal/secrets"
	"github.com/MaWoo96/ledgerview/internal/service"
	"github.com/MaWoo96/ledgerview/internal/store"
	"github.com/MaWoo96/ledgerview/internal/store/rest"
	"github.com/MaWoo96/ledgerview/internal/store/sqlite"
	"github.com/MaWoo96/ledgerview/internal/testdata"
	"github.com/MaWoo96/ledgerview/internal/tui"
)

func main() {
	seed := flag.Bool("seed", false, "seed the local store with sample data and exit")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var (
		recordStore store.RecordStore
		tagStore    store.TagStore
		uploader    store.ReceiptUploader
		saver       service.ReceiptSaver
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Store.Mode)) {
	case "", "sqlite":
		if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o755); err != nil {
			log.Fatalf("mkdir db dir: %v", err)
		}
		db, err := sqlite.Open(cfg.Store.Path)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		defer db.Close()
		if err := sqlite.RunMigrations(db); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		s := sqlite.New(db)
		recordStore = s
		tagStore = s
		saver = s
		if *seed {
			if err := testdata.Seed(ctx, s, cfg.Entity.ID, cfg.Entity.TenantID); err != nil {
				log.Fatalf("seed: %v", err)
			}
			fmt.Println("seeded sample data")
			return
		}
	case "remote":
		if cfg.Store.BaseURL == "" {
			log.Fatal("store.base_url is required in remote mode")
		}
		client := rest.New(cfg.Store.BaseURL, cfg.Store.APIKey)
		recordStore = client
		tagStore = client
		uploader = client
	default:
		log.Fatalf("unknown store mode %q", cfg.Store.Mode)
	}

	provider := assistantProvider(ctx, cfg)

	deps := tui.Deps{
		Fetch:       service.NewFetchController(recordStore),
		Bulk:        service.NewBulkCoordinator(recordStore),
		Receipts:    &service.ReceiptService{Uploader: uploader, Saver: saver},
		Categorizer: &service.CategorizerService{Provider: provider},
		Tags:        &service.TagService{Store: tagStore},
	}

	p := tea.NewProgram(tui.New(ctx, cfg, deps), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("error: %v\n", err)
	}
}

// assistantProvider picks the category-suggestion backend: Gemini when a
// key is available, the offline keyword heuristic otherwise.
func assistantProvider(ctx context.Context, cfg config.Config) llm.Provider {
	key := resolveAPIKey(cfg)
	if key == "" {
		return llm.NewHeuristicProvider()
	}
	g, err := llm.NewGeminiProvider(ctx, key, cfg.Assistant.Model)
	if err != nil {
		log.Printf("warn: assistant unavailable, using heuristic: %v", err)
		return llm.NewHeuristicProvider()
	}
	return g
}

// resolveAPIKey checks the env var first, then the encrypted per-user
// secret store, then plain config.
func resolveAPIKey(cfg config.Config) string {
	env := strings.TrimSpace(cfg.Assistant.APIKeyEnv)
	if env == "" {
		env = "GEMINI_API_KEY"
	}
	if v := os.Getenv(env); v != "" {
		return v
	}
	if s, err := secrets.Default(); err == nil {
		if k, err := s.Get("gemini"); err == nil {
			return k
		}
	}
	return strings.TrimSpace(cfg.Assistant.APIKey)
}

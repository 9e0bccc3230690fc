package main

import (
	"fmt"
	"log"
	"os"

	"ChartQuest/internal/collector"
	"ChartQuest/internal/config"
	"ChartQuest/internal/recorder"
)

func loadConfig() (*config.Config, error) {
	p := *configPath
	if p == "" {
		p = os.Getenv("CONFIG_PATH")
	}
	if p == "" {
		p = config.DefaultPath
	}
	cfg, err := config.Load(p)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func newFetcher(cfg *config.Config) collector.Fetcher {
	switch cfg.DataSource.Provider {
	case "csv":
		return collector.NewCSVFetcher(cfg.DataSource.CSVPath)
	case "mock":
		return &collector.MockFetcher{}
	default:
		return collector.NewYahooFetcher(cfg.Proxy)
	}
}

// stores holds the progression store and trade journal for one run.
type stores struct {
	progress recorder.ProgressStore
	journal  recorder.Recorder
	sqlite   *recorder.SQLiteRecorder // nil when running in memory
}

func (s *stores) Close() {
	if err := s.journal.Close(); err != nil {
		log.Printf("[WARN] close journal: %v", err)
	}
}

// openStores falls back to memory when SQLite is not configured or cannot be opened.
func openStores(cfg *config.Config) *stores {
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err == nil {
			return &stores{progress: sr, journal: sr, sqlite: sr}
		}
		log.Printf("[WARN] init sqlite recorder failed, progress will not persist: %v", err)
	}
	return &stores{progress: recorder.NewMemoryStore(), journal: recorder.NewNoopRecorder()}
}

func requireSQLite(s *stores) error {
	if s.sqlite == nil {
		return fmt.Errorf("database.sqlite_path is not configured")
	}
	return nil
}

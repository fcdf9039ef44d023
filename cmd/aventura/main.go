// Package main provides the aventura binary, the terminal front end for
// solo play: it loads configuration and content, opens the campaign
// store, and runs one interactive session until the player leaves.
package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/icruces/mazmorra/internal/config"
	"github.com/icruces/mazmorra/internal/game/dice"
	"github.com/icruces/mazmorra/internal/observability"
	"github.com/icruces/mazmorra/internal/session"
	"github.com/icruces/mazmorra/internal/storage"
	"github.com/icruces/mazmorra/internal/storage/memory"
	"github.com/icruces/mazmorra/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	contentDir := flag.String("content", "", "content root override; replaces the compendium, condition and vocabulary paths from the config")
	saveBackend := flag.String("save", "auto", "campaign store: auto, postgres, or memoria")
	seed := flag.Uint64("seed", 0, "dice seed for a replayable session; 0 draws a random seed and records it in the campaign")
	strictEquipment := flag.Bool("strict-equipment", false, "reject attacks with weapons that are carried but not equipped")
	scriptsDir := flag.String("scripts", "", "house-rule Lua script directory; overrides the config and enables scripting")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	applyFlags(&cfg, *contentDir, *strictEquipment, *scriptsDir)

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	src := dice.NewSeededSource()
	if *seed != 0 {
		src.SetSeed(*seed)
	} else {
		src.Randomize()
	}

	repo, pool := openRepository(ctx, cfg, *saveBackend, logger)

	sess, cleanup, err := buildSession(cfg, logger, src, repo)
	if err != nil {
		logger.Fatal("building session", zap.Error(err))
	}
	defer cleanup()

	// Campaign name as positional argument: `aventura "La Cripta"` opens
	// that campaign, no argument resumes the last one played.
	campaign := flag.Arg(0)

	lifecycle := session.NewLifecycle(logger)

	// The pool stops after the session so the save-on-exit write still
	// has a live connection.
	if pool != nil {
		lifecycle.Add("postgres", poolService(ctx, pool, logger))
	}
	lifecycle.Add("partida", &session.FuncService{
		StartFn: func() error {
			if err := sess.Open(ctx, campaign); err != nil {
				return err
			}
			return sess.Run(ctx)
		},
		StopFn: sess.Shutdown,
	})

	logger.Info("aventura initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("campaign", campaign))

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("session error", zap.Error(err))
	}
}

// loadConfig reads the config file, falling back to built-in defaults
// when it does not exist so the binary runs from a bare checkout.
func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return config.Default(), nil
	}
	return cfg, err
}

// applyFlags folds command-line overrides into the loaded configuration.
func applyFlags(cfg *config.Config, contentDir string, strict bool, scriptsDir string) {
	if contentDir != "" {
		cfg.Content.CompendiumDir = filepath.Join(contentDir, "compendio")
		cfg.Content.ConditionsDir = filepath.Join(contentDir, "condiciones")
		vocabPath := filepath.Join(contentDir, "vocabulario.yaml")
		if _, err := os.Stat(vocabPath); err == nil {
			cfg.Content.VocabularyFile = vocabPath
		}
	}
	if strict {
		cfg.Rules.StrictEquipment = true
	}
	if scriptsDir != "" {
		cfg.Scripting.Enabled = true
		cfg.Scripting.ScriptsDir = scriptsDir
	}
}

// openRepository picks the campaign store. "auto" tries postgres first
// and degrades to the in-memory store with a warning, so the game is
// playable without a database at the cost of persistence.
func openRepository(ctx context.Context, cfg config.Config, backend string, logger *zap.Logger) (storage.Repository, *postgres.Pool) {
	switch backend {
	case "memoria", "memory":
		logger.Info("using in-memory campaign store")
		return memory.NewRepository(), nil
	case "auto", "postgres":
	default:
		log.Fatalf("unknown save backend %q: must be auto, postgres, or memoria", backend)
	}

	dbStart := time.Now()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		if backend == "postgres" {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		logger.Warn("database unavailable, campaigns will not outlive this process",
			zap.Error(err))
		return memory.NewRepository(), nil
	}
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Duration("elapsed", time.Since(dbStart)))
	return postgres.NewCampaignRepository(pool.DB()), pool
}

// poolService wraps the connection pool in a periodic health check that
// winds down cleanly when the lifecycle stops it.
func poolService(ctx context.Context, pool *postgres.Pool, logger *zap.Logger) session.Service {
	quit := make(chan struct{})
	var once sync.Once
	return &session.FuncService{
		StartFn: func() error {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if err := pool.Health(ctx, 5*time.Second); err != nil {
						logger.Warn("database health check failed", zap.Error(err))
					}
				case <-quit:
					return nil
				}
			}
		},
		StopFn: func() {
			once.Do(func() { close(quit) })
			pool.Close()
		},
	}
}

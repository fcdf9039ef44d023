package main

import (
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/icruces/mazmorra/internal/config"
	"github.com/icruces/mazmorra/internal/game/compendium"
	"github.com/icruces/mazmorra/internal/game/condition"
	"github.com/icruces/mazmorra/internal/game/dice"
	"github.com/icruces/mazmorra/internal/game/vocab"
	"github.com/icruces/mazmorra/internal/llm"
	"github.com/icruces/mazmorra/internal/scripting"
	"github.com/icruces/mazmorra/internal/session"
	"github.com/icruces/mazmorra/internal/storage"
)

// provideCompendium loads the JSON compendium named by the configuration.
func provideCompendium(cfg config.Config, logger *zap.Logger) (*compendium.Compendium, error) {
	start := time.Now()
	comp, err := compendium.Load(cfg.Content.CompendiumDir)
	if err != nil {
		return nil, err
	}
	logger.Info("compendium loaded",
		zap.String("dir", cfg.Content.CompendiumDir),
		zap.Int("weapons", len(comp.Weapons())),
		zap.Int("spells", len(comp.Spells())),
		zap.Int("monsters", len(comp.Monsters())),
		zap.Int("items", len(comp.Items())),
		zap.Duration("elapsed", time.Since(start)),
	)
	return comp, nil
}

// provideConditions layers YAML condition definitions over the built-in
// 5e set. A missing directory just means no extra conditions.
func provideConditions(cfg config.Config, logger *zap.Logger) (*condition.Registry, error) {
	reg := condition.BuiltinRegistry()
	dir := cfg.Content.ConditionsDir
	if dir == "" {
		return reg, nil
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		logger.Debug("conditions directory not found, using builtins",
			zap.String("dir", dir))
		return reg, nil
	}
	if err := reg.LoadDirectory(dir); err != nil {
		return nil, err
	}
	logger.Info("condition definitions loaded",
		zap.String("dir", dir),
		zap.Int("count", len(reg.All())))
	return reg, nil
}

// provideVocabulary merges the optional override file into the built-in
// Spanish vocabulary.
func provideVocabulary(cfg config.Config, logger *zap.Logger) (*vocab.Table, error) {
	table := vocab.Default()
	if cfg.Content.VocabularyFile == "" {
		return table, nil
	}
	if err := table.LoadFile(cfg.Content.VocabularyFile); err != nil {
		return nil, err
	}
	logger.Info("vocabulary overrides loaded",
		zap.String("file", cfg.Content.VocabularyFile))
	return table, nil
}

// provideLLM builds the narration client, or nil when the engine runs
// offline.
func provideLLM(cfg config.Config, logger *zap.Logger) *llm.Client {
	if !cfg.LLM.Enabled {
		return nil
	}
	logger.Info("language model narration enabled",
		zap.String("model", cfg.LLM.Model))
	return llm.New(cfg.LLM, logger)
}

// provideScripts loads house-rule Lua scripts when scripting is enabled.
// The returned cleanup releases the script VM.
func provideScripts(cfg config.Config, src dice.Source, logger *zap.Logger) (*scripting.Manager, func(), error) {
	if !cfg.Scripting.Enabled {
		return nil, func() {}, nil
	}
	mgr := scripting.NewManager(dice.NewRoller(src, logger), logger)
	if err := mgr.Load(cfg.Scripting.ScriptsDir, cfg.Scripting.InstructionLimit); err != nil {
		mgr.Close()
		return nil, nil, err
	}
	return mgr, mgr.Close, nil
}

// provideOptions assembles the session options for terminal play.
func provideOptions(
	cfg config.Config,
	logger *zap.Logger,
	comp *compendium.Compendium,
	conds *condition.Registry,
	table *vocab.Table,
	client *llm.Client,
	scripts *scripting.Manager,
	src dice.Source,
	repo storage.Repository,
) session.Options {
	return session.Options{
		Config:     &cfg,
		Logger:     logger,
		Compendium: comp,
		Conditions: conds,
		Vocabulary: table,
		Dice:       src,
		Repository: repo,
		LLM:        client,
		Scripts:    scripts,
		Input:      os.Stdin,
		Output:     os.Stdout,
	}
}

//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"
	"go.uber.org/zap"

	"github.com/icruces/mazmorra/internal/config"
	"github.com/icruces/mazmorra/internal/game/dice"
	"github.com/icruces/mazmorra/internal/session"
	"github.com/icruces/mazmorra/internal/storage"
)

// buildSession assembles a playable Session from configuration: content
// is loaded from disk, optional subsystems come up according to cfg, and
// the returned cleanup releases whatever they hold.
func buildSession(cfg config.Config, logger *zap.Logger, src dice.Source, repo storage.Repository) (*session.Session, func(), error) {
	wire.Build(
		provideCompendium,
		provideConditions,
		provideVocabulary,
		provideLLM,
		provideScripts,
		provideOptions,
		session.New,
	)
	return nil, nil, nil
}

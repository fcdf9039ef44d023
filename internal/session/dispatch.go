package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/icruces/mazmorra/internal/game/combat"
	"github.com/icruces/mazmorra/internal/game/compendium"
	"github.com/icruces/mazmorra/internal/game/encounter"
	"github.com/icruces/mazmorra/internal/game/progress"
	"github.com/icruces/mazmorra/internal/game/rules"
)

// dispatch executes one slash command. Commands never consume the turn
// economy; mid-combat the initiative stays where it was unless the
// command itself advances it.
func (s *Session) dispatch(ctx context.Context, in cmdInput) error {
	cmd, ok := s.cmds.Resolve(in.name)
	if !ok {
		s.render.Info(fmt.Sprintf("No conozco el comando /%s. Prueba /ayuda.", in.name))
		return nil
	}

	switch cmd.Name {
	case "ayuda":
		s.render.Help(s.cmds.Commands())

	case "guardar":
		if err := s.saveLocked(ctx); err != nil {
			s.log.Error("manual save failed", zap.Error(err))
			s.render.Info("No se pudo guardar: " + err.Error())
			return nil
		}
		s.render.Info("Partida guardada.")

	case "salir":
		return errQuit

	case "historial":
		s.render.JournalView(s.journal.Tail(s.cfg.Session.HistoryLimit))

	case "reglas":
		s.rules = !s.rules
		s.meta.RulesMode = s.rules
		if s.rules {
			s.render.Info("Modo reglas activado: verás el detalle de cada tirada.")
		} else {
			s.render.Info("Modo reglas desactivado.")
		}

	case "estado":
		s.render.Sheet(s.pc, s.journal.Stats)

	case "inventario":
		s.inv.Equipment = s.pc.Source.Equipment
		s.inv.Items = s.pc.Source.Inventory
		s.render.InventoryView(s.inv, s.comp)

	case "hp":
		s.render.StatusLine(s.pc)
		if len(s.pc.Current.Conditions) > 0 {
			ids := make([]string, 0, len(s.pc.Current.Conditions))
			for _, c := range s.pc.Current.Conditions {
				ids = append(ids, c.ID)
			}
			s.render.Info("Condiciones: " + strings.Join(ids, ", "))
		}

	case "descansar":
		return s.longRest(ctx)

	case "subir_nivel":
		return s.levelUp(ctx)

	case "encuentro":
		return s.startEncounter(ctx, in.args)

	case "combate":
		if !s.inCombat() {
			s.render.Info("No estás en combate.")
			return nil
		}
		s.render.CombatStatus(s.mgr.Summary())

	case "turno":
		if !s.inCombat() {
			s.render.Info("No estás en combate.")
			return nil
		}
		if info, ok := s.mgr.CurrentTurn(); ok {
			s.render.TurnDetail(info)
		}

	case "pasar":
		if !s.inCombat() {
			s.render.Info("No estás en combate.")
			return nil
		}
		if info, ok := s.mgr.CurrentTurn(); !ok || info.Side != combat.SidePC {
			s.render.Info("No es tu turno.")
			return nil
		}
		s.render.Info("Pasas el turno.")
		s.pending = nil
		s.mgr.EndTurn()
		return s.autosave(ctx)

	case "huir":
		if !s.inCombat() {
			s.render.Info("No estás en combate.")
			return nil
		}
		if err := s.mgr.End(combat.EndReasonFled); err != nil {
			return s.engineFailure(ctx, fmt.Sprintf("flee: %v", err))
		}
		return s.finishCombat(ctx)
	}
	return nil
}

// longRest restores the character overnight. Never mid-combat.
func (s *Session) longRest(ctx context.Context) error {
	if s.inCombat() {
		s.render.Info("No puedes descansar en mitad de un combate.")
		return nil
	}
	if s.pc.Current.Dead {
		s.render.Info("Los muertos no descansan.")
		return nil
	}
	s.pc.LongRest()
	s.pc.Current.Conditions = nil
	s.render.Info("Descansáis durante la noche. Recuperas todos los puntos de golpe y tus ranuras de conjuro.")
	s.render.StatusLine(s.pc)
	s.journal.Append(journalSystem, "Descanso largo completado.")
	return s.autosave(ctx)
}

// levelUp advances the character to the level the XP already covers.
func (s *Session) levelUp(ctx context.Context) error {
	if s.inCombat() {
		s.render.Info("No puedes subir de nivel en mitad de un combate.")
		return nil
	}
	award := progress.GrantXP(s.pc.Current.XP, s.pc.Source.Level, 0)
	if !award.CanLevelUp {
		rep := progress.Track(s.pc.Current.XP, s.pc.Source.Level)
		s.render.Info(fmt.Sprintf("Aún no tienes experiencia suficiente: faltan %d XP.", rep.XPMissing))
		return nil
	}

	conMod := s.pc.Derived.Modifiers[rules.Constitucion]
	up, err := progress.Advance(s.pc.Source.Class, conMod, s.pc.Source.Level, award.EarnedLevel)
	if err != nil {
		return s.engineFailure(ctx, fmt.Sprintf("level up: %v", err))
	}

	s.pc.Source.Level = up.LevelAfter
	if err := s.pc.Recompute(s.comp, time.Now().UTC()); err != nil {
		return s.engineFailure(ctx, fmt.Sprintf("recompute after level up: %v", err))
	}
	// Recompute raises the maximum; the gained points are granted here.
	s.pc.Current.HP += up.HPGained
	if s.pc.Current.HP > s.pc.Derived.HPMax {
		s.pc.Current.HP = s.pc.Derived.HPMax
	}
	s.pc.Current.HitDiceLeft += up.LevelAfter - up.LevelBefore
	if s.pc.Current.HitDiceLeft > s.pc.Source.Level {
		s.pc.Current.HitDiceLeft = s.pc.Source.Level
	}

	s.render.LevelUpReport(up)
	s.journal.Append(journalSystem, fmt.Sprintf("%s sube al nivel %d.", s.pc.Source.Name, up.LevelAfter))
	return s.autosave(ctx)
}

// startEncounter builds a fresh encounter from monster ids, rolls
// initiative and reports the expected difficulty.
func (s *Session) startEncounter(ctx context.Context, args []string) error {
	if s.inCombat() {
		s.render.Info("Ya estás en combate. Termina este primero.")
		return nil
	}
	if s.pc.Current.Dead {
		s.render.Info("Tu personaje ha muerto. Esta historia ha terminado.")
		return nil
	}
	if len(args) == 0 {
		s.render.Info("Indica al menos un monstruo: /encuentro goblin goblin")
		return nil
	}

	// Resolve every monster before touching anything so a typo cancels
	// the whole encounter, then number duplicates the way a table would:
	// "Goblin 1", "Goblin 2".
	picks := make([]*compendium.Monster, 0, len(args))
	counts := make(map[string]int)
	for _, arg := range args {
		m, ok := s.comp.Monster(rules.Slug(arg))
		if !ok {
			s.render.Info(fmt.Sprintf("No conozco el monstruo %q. El encuentro queda cancelado.", arg))
			return nil
		}
		picks = append(picks, m)
		counts[m.ID]++
	}

	mgr := combat.NewManager(s.comp, s.conds, s.roller, s.log)
	if _, err := mgr.AddFromCharacter(s.pc, ""); err != nil {
		return s.engineFailure(ctx, fmt.Sprintf("add character to combat: %v", err))
	}
	ordinals := make(map[string]int)
	monsterXP := make([]int, 0, len(picks))
	for _, m := range picks {
		name := ""
		if counts[m.ID] > 1 {
			ordinals[m.ID]++
			name = fmt.Sprintf("%s %d", m.Name, ordinals[m.ID])
		}
		if _, err := mgr.AddFromCompendium(m.ID, "", name, combat.SideEnemy); err != nil {
			return s.engineFailure(ctx, fmt.Sprintf("add monster %q: %v", m.ID, err))
		}
		monsterXP = append(monsterXP, m.XP)
	}
	if err := mgr.Begin(); err != nil {
		return s.engineFailure(ctx, fmt.Sprintf("begin combat: %v", err))
	}

	s.mgr = mgr
	s.pending = nil
	s.render.Notice("¡Comienza el combate!")
	s.render.Info(encounter.Assess(monsterXP, s.pc.Source.Level, 1).Describe())
	s.render.CombatStatus(mgr.Summary())
	s.journal.Append(journalCombat, "Comienza un combate contra "+strings.Join(args, ", ")+".")
	return s.autosave(ctx)
}

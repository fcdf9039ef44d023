package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/icruces/mazmorra/internal/game/action"
	"github.com/icruces/mazmorra/internal/game/combat"
	"github.com/icruces/mazmorra/internal/game/validate"
)

// ProcessMonsterTurn resolves the current combatant's turn without
// player input: attack the first living opponent with the stat block's
// preferred action. The caller decides when a turn is a monster's and
// ends it afterwards.
//
// Precondition: mgr is running and its current combatant is the actor.
func (p *Pipeline) ProcessMonsterTurn(ctx context.Context, mgr *combat.Manager) (res *Result) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("pipeline panic", zap.Any("panic", r))
			res = &Result{Outcome: OutcomeInternalError, Code: validate.CodeInternal, Err: fmt.Sprintf("%v", r)}
		}
	}()
	if mgr == nil || mgr.State() != combat.StateRunning {
		return internalResult(fmt.Errorf("no running combat for a monster turn"))
	}
	scene, err := mgr.SceneContext()
	if err != nil {
		return internalResult(fmt.Errorf("building monster scene: %w", err))
	}

	if v := p.val.CanAct(p.actorState(&scene, mgr)); !v.Valid {
		return &Result{
			Outcome:    OutcomeRejected,
			Code:       v.Code,
			Reason:     v.Reason,
			Suggestion: p.suggestion(v, &scene),
			Validation: &v,
		}
	}
	if len(scene.LivingEnemies) == 0 {
		return &Result{
			Outcome: OutcomeRejected,
			Code:    validate.CodeNoTarget,
			Reason:  "No quedan objetivos con vida.",
		}
	}

	a := action.New(action.KindAttack, "")
	a.Attack.AttackerID = scene.ActorID
	a.Attack.TargetID = scene.LivingEnemies[0].InstanceID
	a.Confidence = 1

	v := p.validateAction(a, &scene, mgr)
	if !v.Valid {
		return &Result{
			Outcome:    OutcomeRejected,
			Code:       v.Code,
			Reason:     v.Reason,
			Suggestion: p.suggestion(v, &scene),
			Action:     a,
			Validation: &v,
		}
	}

	exec, err := p.executeAttack(a, &scene, mgr)
	if err != nil {
		return internalResult(err)
	}
	return p.applyAndNarrate(ctx, a, v, &scene, mgr, exec)
}

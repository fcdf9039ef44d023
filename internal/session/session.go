// Package session drives a solo play session end to end: it owns the
// terminal loop, routes free text through the turn pipeline, runs NPC
// turns, and folds everything into campaign documents for the
// repository. One Session plays one campaign.
package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/icruces/mazmorra/internal/config"
	"github.com/icruces/mazmorra/internal/game/action"
	"github.com/icruces/mazmorra/internal/game/character"
	"github.com/icruces/mazmorra/internal/game/combat"
	"github.com/icruces/mazmorra/internal/game/compendium"
	"github.com/icruces/mazmorra/internal/game/condition"
	"github.com/icruces/mazmorra/internal/game/dice"
	"github.com/icruces/mazmorra/internal/game/narrate"
	"github.com/icruces/mazmorra/internal/game/normalize"
	"github.com/icruces/mazmorra/internal/game/pipeline"
	"github.com/icruces/mazmorra/internal/game/progress"
	"github.com/icruces/mazmorra/internal/game/validate"
	"github.com/icruces/mazmorra/internal/game/vocab"
	"github.com/icruces/mazmorra/internal/llm"
	"github.com/icruces/mazmorra/internal/scripting"
	"github.com/icruces/mazmorra/internal/storage"
)

// errQuit ends the play loop without being an error: the player left.
var errQuit = errors.New("session: player quit")

// Options wires a Session. Compendium, Dice and Repository are
// mandatory; everything else has a working default.
type Options struct {
	Config     *config.Config
	Logger     *zap.Logger
	Compendium *compendium.Compendium
	Conditions *condition.Registry
	Vocabulary *vocab.Table
	Dice       dice.Source
	Repository storage.Repository
	LLM        *llm.Client
	Scripts    *scripting.Manager
	Input      io.Reader
	Output     io.Writer
}

// Session is one player at one table. It is driven by Run from a single
// goroutine; Shutdown may be called concurrently to force a final save.
type Session struct {
	cfg    *config.Config
	log    *zap.Logger
	comp   *compendium.Compendium
	conds  *condition.Registry
	src    dice.Source
	roller *dice.Roller
	repo   storage.Repository
	llm    *llm.Client
	pipe   *pipeline.Pipeline
	render *Renderer
	in     *bufio.Scanner
	cmds   *commandRegistry
	style  narrate.Style

	// mu guards the campaign state below. The loop takes it per line of
	// input, never while blocked reading, so Shutdown can always save.
	mu sync.Mutex

	campaignID uuid.UUID
	campaign   string
	pc         *character.Character
	inv        Inventory
	roster     Roster
	journal    Journal
	meta       Metadata
	mgr        *combat.Manager
	pending    *pipeline.Result
	rules      bool

	closed atomic.Bool
}

// New builds a Session from options. No campaign is loaded yet; call
// Open before Run.
func New(opts Options) (*Session, error) {
	if opts.Compendium == nil {
		return nil, errors.New("session: Options.Compendium is required")
	}
	if opts.Dice == nil {
		return nil, errors.New("session: Options.Dice is required")
	}
	if opts.Repository == nil {
		return nil, errors.New("session: Options.Repository is required")
	}
	cfg := opts.Config
	if cfg == nil {
		def := config.Default()
		cfg = &def
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	conds := opts.Conditions
	if conds == nil {
		conds = condition.BuiltinRegistry()
	}
	table := opts.Vocabulary
	if table == nil {
		table = vocab.Default()
	}
	in := opts.Input
	if in == nil {
		in = os.Stdin
	}
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	roller := dice.NewRoller(opts.Dice, logger)
	var llmFallback normalize.Fallback
	if opts.LLM != nil && cfg.LLM.NormalizerFallback {
		llmFallback = opts.LLM.NormalizerFallback()
	}
	norm := normalize.New(opts.Compendium, table, llmFallback, logger)
	val := validate.New(opts.Compendium, cfg.Rules.StrictEquipment)
	pipe := pipeline.New(opts.Compendium, norm, val, roller, logger)

	s := &Session{
		cfg:    cfg,
		log:    logger.Named("session"),
		comp:   opts.Compendium,
		conds:  conds,
		src:    opts.Dice,
		roller: roller,
		repo:   opts.Repository,
		llm:    opts.LLM,
		pipe:   pipe,
		render: NewRenderer(out),
		in:     bufio.NewScanner(in),
		cmds:   defaultCommands(),
	}
	s.setStyle(narrate.ParseStyle(cfg.Session.NarrationStyle))

	// The scripting manager no-ops with no scripts loaded, so it is
	// wired unconditionally when present.
	if opts.Scripts != nil {
		pipe.SetDamageHook(opts.Scripts)
		opts.Scripts.GetCombatant = s.scriptCombatant
		opts.Scripts.ApplyCondition = s.scriptApplyCondition
	}
	return s, nil
}

func (s *Session) setStyle(st narrate.Style) {
	s.style = st
	s.pipe.SetStyle(st)
}

// Renderer exposes the session's renderer so the caller can tune it.
func (s *Session) Renderer() *Renderer { return s.render }

// Open loads the named campaign, or the most recently played one when
// name is empty, or interviews the player into a new one.
func (s *Session) Open(ctx context.Context, name string) error {
	camp, err := s.lookupCampaign(ctx, name)
	if err != nil {
		return err
	}
	if camp == nil {
		if err := s.createCampaign(ctx, name); err != nil {
			return fmt.Errorf("session: %w", err)
		}
	} else {
		if err := s.restoreCampaign(camp); err != nil {
			return fmt.Errorf("session: campaign %q: %w", camp.Name, err)
		}
		s.render.Info(fmt.Sprintf("Partida %q cargada: %s, %s de nivel %d.",
			s.campaign, s.pc.Source.Name, s.pc.Source.Class, s.pc.Source.Level))
	}

	s.mu.Lock()
	s.meta.SessionsPlayed++
	if s.meta.Seed == nil {
		if seed, ok := s.rollerSeed(); ok {
			s.meta.Seed = &seed
		}
	}
	s.mu.Unlock()
	if s.llm != nil {
		s.pipe.SetNarrator(s.llm.Narrator(s.style, s.pc.Source.Name))
	}
	s.log.Info("session opened",
		zap.String("campaign", s.campaign),
		zap.String("character", s.pc.Source.Name),
		zap.Int("sessions_played", s.meta.SessionsPlayed))
	return nil
}

func (s *Session) lookupCampaign(ctx context.Context, name string) (*storage.Campaign, error) {
	if name != "" {
		camp, err := s.repo.LoadByName(ctx, name)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return camp, err
	}
	last, err := s.repo.LastPlayed(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.repo.Load(ctx, last.ID)
}

// Run drives the play loop until the player quits, input ends, the
// context is cancelled or the engine fails. The campaign is saved on
// every way out.
func (s *Session) Run(ctx context.Context) error {
	s.render.Welcome(s.campaign)
	if s.inCombat() {
		s.render.Notice("Hay un combate a medias. Retomamos donde lo dejasteis.")
		s.render.CombatStatus(s.mgr.Summary())
	}

	for {
		if ctx.Err() != nil {
			return s.leave(ctx)
		}
		var err error
		if s.inCombat() {
			err = s.combatTurn(ctx)
		} else {
			err = s.exploreTurn(ctx)
		}
		if errors.Is(err, errQuit) {
			s.render.Info("La partida queda guardada. ¡Hasta la próxima!")
			return s.leave(ctx)
		}
		if err != nil {
			s.closed.Store(true)
			return err
		}
	}
}

// leave is the clean exit: final save, loop done. A cancelled context
// still gets a short window so the save is not lost with it.
func (s *Session) leave(ctx context.Context) error {
	if s.closed.Swap(true) {
		return nil
	}
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
	}
	if err := s.save(ctx); err != nil {
		s.log.Error("final save failed", zap.Error(err))
		return err
	}
	return nil
}

// Shutdown forces a final save. The lifecycle calls it on SIGINT and
// SIGTERM while the loop may be blocked reading input.
func (s *Session) Shutdown() {
	if s.closed.Swap(true) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.save(ctx); err != nil {
		s.log.Error("save on shutdown failed", zap.Error(err))
	}
}

// exploreTurn handles one line of input outside combat.
func (s *Session) exploreTurn(ctx context.Context) error {
	s.render.StatusLine(s.pc)
	s.render.Prompt()
	line, err := s.readLine()
	if err != nil {
		return errQuit
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cmd, ok := parseSlash(line); ok {
		return s.dispatch(ctx, cmd)
	}
	return s.playerAction(ctx, line)
}

// combatTurn advances the encounter by one turn: the player's own,
// an NPC's, or the automatic death save of a dying player character.
func (s *Session) combatTurn(ctx context.Context) error {
	info, ok := s.mgr.CurrentTurn()
	if !ok {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.finishCombat(ctx)
	}

	if info.Side != combat.SidePC {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.npcTurn(ctx, info)
	}

	s.render.TurnHeader(info)
	if info.Unconscious {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.dyingTurn(ctx, info)
	}

	s.render.Prompt()
	line, err := s.readLine()
	if err != nil {
		return errQuit
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cmd, ok := parseSlash(line); ok {
		return s.dispatch(ctx, cmd)
	}
	return s.playerAction(ctx, line)
}

// playerAction routes one typed action through the pipeline. A pending
// clarification is resolved first: a matching reply is rewritten into
// full action text, anything else is treated as a fresh action.
func (s *Session) playerAction(ctx context.Context, line string) error {
	if s.pending != nil {
		if opt, ok := resolveOption(s.pending, line); ok {
			line = s.replyText(s.pending, opt)
		}
		s.pending = nil
	}

	scene, mgr, err := s.scene()
	if err != nil {
		return s.engineFailure(ctx, fmt.Sprintf("scene context: %v", err))
	}
	res := s.pipe.Process(ctx, line, scene, mgr)
	return s.handleResult(ctx, res)
}

func (s *Session) handleResult(ctx context.Context, res *pipeline.Result) error {
	switch res.Outcome {
	case pipeline.OutcomeNeedsClarification:
		s.pending = res
		s.render.Question(res.Question, res.Options)
		return nil

	case pipeline.OutcomeRejected:
		s.render.Rejection(res.Reason, res.Suggestion)
		s.render.Warnings(res.Warnings)
		return nil

	case pipeline.OutcomeApplied:
		s.render.Warnings(res.Warnings)
		if s.rules {
			s.render.RulesDetail(res.Events)
		}
		s.render.Narration(res.Narration)
		if res.Narration != "" {
			s.journal.Append(journalNarration, res.Narration)
		}
		if s.inCombat() || (s.mgr != nil && s.mgr.State().Over()) {
			return s.afterCombatAction(ctx, res)
		}
		return s.autosave(ctx)

	default:
		return s.engineFailure(ctx, res.Err)
	}
}

// afterCombatAction finishes the bookkeeping of an applied in-combat
// action: close the fight if it just ended, otherwise pass the turn
// once the action economy is spent.
func (s *Session) afterCombatAction(ctx context.Context, res *pipeline.Result) error {
	if s.mgr.State().Over() {
		return s.finishCombat(ctx)
	}
	if res.Delta != nil && res.Delta.ActionUsed {
		s.mgr.EndTurn()
	}
	return s.autosave(ctx)
}

// npcTurn lets the engine play one monster or ally turn, then always
// advances the initiative.
func (s *Session) npcTurn(ctx context.Context, info combat.TurnInfo) error {
	s.render.TurnHeader(info)
	res := s.pipe.ProcessMonsterTurn(ctx, s.mgr)
	switch res.Outcome {
	case pipeline.OutcomeApplied:
		if s.rules {
			s.render.RulesDetail(res.Events)
		}
		s.render.Narration(res.Narration)
		if res.Narration != "" {
			s.journal.Append(journalNarration, res.Narration)
		}
	case pipeline.OutcomeRejected:
		reason := res.Reason
		if reason == "" {
			reason = fmt.Sprintf("%s no puede actuar.", info.Name)
		}
		s.render.Info(reason)
	default:
		return s.engineFailure(ctx, res.Err)
	}

	if s.mgr.State().Over() {
		return s.finishCombat(ctx)
	}
	s.mgr.EndTurn()
	return s.autosave(ctx)
}

// dyingTurn rolls the automatic death save of the unconscious player
// character. Stable characters just wait.
func (s *Session) dyingTurn(ctx context.Context, info combat.TurnInfo) error {
	if c, ok := s.mgr.Combatant(info.ID); ok && c.Stable {
		s.render.Info(fmt.Sprintf("%s está inconsciente pero estable.", c.Name))
		if !s.mgr.State().Over() {
			s.mgr.EndTurn()
		}
		return s.autosave(ctx)
	}

	out, err := s.mgr.RollDeathSave()
	if err != nil {
		return s.engineFailure(ctx, fmt.Sprintf("death save: %v", err))
	}
	s.render.DeathSave(info.Name, out)
	if s.mgr.State().Over() {
		return s.finishCombat(ctx)
	}
	s.mgr.EndTurn()
	return s.autosave(ctx)
}

// finishCombat closes the encounter: banner, sheet write-back, XP,
// roster and stats updates, and a save.
func (s *Session) finishCombat(ctx context.Context) error {
	sum := s.mgr.Summary()
	s.render.EndBanner(sum)

	if c, ok := s.mgr.Combatant(s.pc.ID); ok {
		cur := &s.pc.Current
		cur.HP = c.HP
		cur.HPTemp = c.HPTemp
		cur.Unconscious = c.Unconscious
		cur.Stable = c.Stable
		cur.Dead = c.Dead
		cur.DeathSaves = c.DeathSaves
		cur.Conditions = c.Conditions.Snapshots()
		if len(c.SlotsRemaining) > 0 {
			cur.SlotsRemaining = make(map[int]int, len(c.SlotsRemaining))
			for lvl, n := range c.SlotsRemaining {
				cur.SlotsRemaining[lvl] = n
			}
		}
	}

	stats := &s.journal.Stats
	stats.Combats++
	for _, c := range s.mgr.Combatants() {
		if c.Side != combat.SideEnemy {
			continue
		}
		if !c.Alive() {
			stats.EnemiesDefeated++
		}
		s.roster.Record(NPC{
			ID:       c.ID,
			Name:     c.Name,
			Ref:      c.CompendiumRef,
			Attitude: "hostil",
			Dead:     c.Dead || !c.Alive(),
		})
	}

	s.journal.Append(journalCombat, fmt.Sprintf("Combate terminado (%s) en la ronda %d.", sum.State, sum.Round))

	if sum.XPEarned > 0 {
		award := progress.GrantXP(s.pc.Current.XP, s.pc.Source.Level, sum.XPEarned)
		s.pc.Current.XP = award.XPAfter
		s.render.XPAward(award)
	}
	if s.pc.Current.Dead {
		stats.Deaths++
		s.render.Notice(fmt.Sprintf("La aventura de %s termina aquí.", s.pc.Source.Name))
		s.journal.Append(journalSystem, fmt.Sprintf("%s ha muerto.", s.pc.Source.Name))
	}

	s.mgr = nil
	s.pending = nil
	return s.saveLocked(ctx)
}

// engineFailure is the internal-error path: report, journal, save, and
// surface the error so the loop ends.
func (s *Session) engineFailure(ctx context.Context, detail string) error {
	s.render.InternalError(detail)
	s.journal.Append(journalSystem, "Error interno del motor: "+detail)
	if err := s.saveLocked(ctx); err != nil {
		s.log.Error("save after engine failure", zap.Error(err))
	}
	return fmt.Errorf("session: engine failure: %s", detail)
}

// scene builds the pipeline input for the current situation: the live
// combat scene mid-encounter, a solo exploration scene otherwise.
func (s *Session) scene() (*action.SceneContext, *combat.Manager, error) {
	if s.inCombat() {
		sc, err := s.mgr.SceneContext()
		if err != nil {
			return nil, nil, err
		}
		return &sc, s.mgr, nil
	}
	sc := s.exploreScene()
	return &sc, nil, nil
}

// exploreScene projects the character sheet into a scene with no
// enemies, so skill checks and generic actions work between fights.
func (s *Session) exploreScene() action.SceneContext {
	src := s.pc.Source
	sc := action.SceneContext{
		ActorID:           s.pc.ID,
		ActorName:         src.Name,
		MovementRemaining: s.pc.Derived.SpeedFt,
		ActionAvailable:   true,
		BonusAvailable:    true,
	}
	add := func(ref string) {
		if ref == "" {
			return
		}
		w, ok := s.comp.Weapon(ref)
		if !ok {
			return
		}
		for _, have := range sc.AvailableWeapons {
			if have.ID == w.ID {
				return
			}
		}
		sc.AvailableWeapons = append(sc.AvailableWeapons, action.SceneWeapon{ID: w.ID, Name: w.Name})
	}
	sc.PrimaryWeapon = src.Equipment.MainHandRef
	sc.SecondaryWeapon = src.Equipment.OffHandRef
	add(src.Equipment.MainHandRef)
	add(src.Equipment.OffHandRef)
	for _, entry := range src.Inventory {
		add(entry.Ref)
	}
	if src.Spellcasting != nil {
		seen := make(map[string]bool)
		for _, id := range src.Spellcasting.Known {
			if !seen[id] {
				seen[id] = true
				sc.KnownSpells = append(sc.KnownSpells, id)
			}
		}
		for _, id := range src.Spellcasting.Prepared {
			if !seen[id] {
				seen[id] = true
				sc.KnownSpells = append(sc.KnownSpells, id)
			}
		}
		sc.AvailableSlots = make(map[int]int, len(s.pc.Current.SlotsRemaining))
		for lvl, n := range s.pc.Current.SlotsRemaining {
			sc.AvailableSlots[lvl] = n
		}
	}
	return sc
}

func (s *Session) inCombat() bool {
	return s.mgr != nil && s.mgr.State() == combat.StateRunning
}

// autosave persists after a completed turn when enabled. Failing to
// autosave warns but never ends the session.
func (s *Session) autosave(ctx context.Context) error {
	if !s.cfg.Session.Autosave {
		return nil
	}
	if err := s.saveLocked(ctx); err != nil {
		s.log.Error("autosave failed", zap.Error(err))
		s.render.Info("Aviso: no se pudo guardar automáticamente.")
	}
	return nil
}

func (s *Session) rollerSeed() (uint64, bool) {
	seeded, ok := s.src.(*dice.SeededSource)
	if !ok {
		return 0, false
	}
	return seeded.Seed()
}

// scriptCombatant hands the Lua sandbox a read-only view of a combatant.
func (s *Session) scriptCombatant(id string) *scripting.CombatantInfo {
	if s.mgr == nil {
		return nil
	}
	c, ok := s.mgr.Combatant(id)
	if !ok {
		return nil
	}
	return &scripting.CombatantInfo{
		ID:         c.ID,
		Name:       c.Name,
		Side:       string(c.Side),
		HP:         c.HP,
		HPMax:      c.HPMax,
		AC:         c.AC,
		Conditions: c.Conditions.IDs(),
	}
}

// scriptApplyCondition lets house rules apply a registered condition.
func (s *Session) scriptApplyCondition(id, conditionID string, stacks, duration int) error {
	if s.mgr == nil {
		return errors.New("no hay combate activo")
	}
	c, ok := s.mgr.Combatant(id)
	if !ok {
		return fmt.Errorf("combatiente %q desconocido", id)
	}
	def, ok := s.conds.Get(conditionID)
	if !ok {
		return fmt.Errorf("condición %q desconocida", conditionID)
	}
	return c.Conditions.Apply(def, stacks, duration)
}

func (s *Session) readLine() (string, error) {
	if !s.in.Scan() {
		if err := s.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return s.in.Text(), nil
}

// ask prints a labelled prompt and reads one line.
func (s *Session) ask(label string) (string, error) {
	s.render.Ask(label)
	return s.readLine()
}

// spellName and weaponName resolve ids for player-facing text.
func (s *Session) spellName(id string) string {
	if sp, ok := s.comp.Spell(id); ok {
		return sp.Name
	}
	return strings.ReplaceAll(id, "_", " ")
}

func (s *Session) weaponName(id string) string {
	if w, ok := s.comp.Weapon(id); ok {
		return w.Name
	}
	return strings.ReplaceAll(id, "_", " ")
}

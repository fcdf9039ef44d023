package encounter_test

import (
	"testing"

	"github.com/icruces/mazmorra/internal/game/encounter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// TestMultiplier_StandardParty verifies the base ladder for parties of 3-5
// characters.
func TestMultiplier_StandardParty(t *testing.T) {
	cases := []struct {
		monsters int
		party    int
		want     float64
	}{
		{1, 4, 1.0},
		{2, 4, 1.5},
		{3, 3, 2.0},
		{6, 4, 2.0},
		{7, 5, 2.5},
		{10, 4, 2.5},
		{11, 4, 3.0},
		{14, 3, 3.0},
		{15, 4, 4.0},
		{20, 4, 4.0},
	}
	for _, tc := range cases {
		got := encounter.Multiplier(tc.monsters, tc.party)
		assert.Equal(t, tc.want, got,
			"multiplier for %d monsters vs party of %d", tc.monsters, tc.party)
	}
}

// TestMultiplier_SmallPartyStepsUp verifies that parties of one or two climb
// one rung, which is what makes solo play so punishing.
func TestMultiplier_SmallPartyStepsUp(t *testing.T) {
	assert.Equal(t, 1.5, encounter.Multiplier(1, 1), "one monster vs solo hero")
	assert.Equal(t, 2.0, encounter.Multiplier(2, 1), "pair vs solo hero")
	assert.Equal(t, 2.5, encounter.Multiplier(3, 2), "small pack vs duo")
	assert.Equal(t, 3.0, encounter.Multiplier(7, 1), "large pack vs solo hero")
	assert.Equal(t, 4.0, encounter.Multiplier(11, 2), "horde vs duo")
	assert.Equal(t, 5.0, encounter.Multiplier(15, 1), "top of the ladder vs solo hero")
}

// TestMultiplier_LargePartyStepsDown verifies that parties of six or more
// drop one rung, clamped at the bottom of the ladder.
func TestMultiplier_LargePartyStepsDown(t *testing.T) {
	assert.Equal(t, 1.0, encounter.Multiplier(1, 6), "single monster clamps at x1")
	assert.Equal(t, 1.0, encounter.Multiplier(2, 6), "pair steps down to x1")
	assert.Equal(t, 1.5, encounter.Multiplier(3, 7), "small pack steps down to x1.5")
	assert.Equal(t, 3.0, encounter.Multiplier(15, 6), "horde steps down to x3")
}

// TestMultiplier_Property verifies the postcondition: the multiplier is
// always one of the ladder values regardless of input.
func TestMultiplier_Property(t *testing.T) {
	ladder := map[float64]bool{1.0: true, 1.5: true, 2.0: true, 2.5: true, 3.0: true, 4.0: true, 5.0: true}
	rapid.Check(t, func(rt *rapid.T) {
		monsters := rapid.IntRange(0, 30).Draw(rt, "monsters")
		party := rapid.IntRange(1, 8).Draw(rt, "party")

		got := encounter.Multiplier(monsters, party)
		assert.True(rt, ladder[got],
			"Multiplier postcondition: %v must be a ladder value", got)
	})
}

// TestGroupThresholds_ScalesByPartySize verifies the DMG row times the
// character count.
func TestGroupThresholds_ScalesByPartySize(t *testing.T) {
	got := encounter.GroupThresholds(3, 4)
	want := encounter.Thresholds{Easy: 300, Medium: 600, Hard: 900, Deadly: 1600}
	assert.Equal(t, want, got, "level 3 party of 4 must scale the level 3 row by 4")
}

// TestGroupThresholds_ClampsInputs verifies levels outside 1-20 clamp to the
// nearest row and party sizes below one count as one.
func TestGroupThresholds_ClampsInputs(t *testing.T) {
	level1 := encounter.Thresholds{Easy: 25, Medium: 50, Hard: 75, Deadly: 100}
	assert.Equal(t, level1, encounter.GroupThresholds(0, 1), "level 0 clamps to the level 1 row")
	assert.Equal(t, level1, encounter.GroupThresholds(-3, 1), "negative level clamps to the level 1 row")

	level20 := encounter.Thresholds{Easy: 2800, Medium: 5700, Hard: 8500, Deadly: 12700}
	assert.Equal(t, level20, encounter.GroupThresholds(25, 1), "level 25 clamps to the level 20 row")

	level5 := encounter.Thresholds{Easy: 250, Medium: 500, Hard: 750, Deadly: 1100}
	assert.Equal(t, level5, encounter.GroupThresholds(5, 0), "party of 0 counts as a solo character")
}

// TestClassify_Boundaries walks adjusted XP across every band edge for the
// level 1 solo thresholds. Edges belong to the harder band, and mortal
// starts at one and a half times deadly.
func TestClassify_Boundaries(t *testing.T) {
	th := encounter.Thresholds{Easy: 25, Medium: 50, Hard: 75, Deadly: 100}
	cases := []struct {
		xp   int
		want encounter.Difficulty
	}{
		{0, encounter.DifficultyTrivial},
		{24, encounter.DifficultyTrivial},
		{25, encounter.DifficultyEasy},
		{49, encounter.DifficultyEasy},
		{50, encounter.DifficultyMedium},
		{74, encounter.DifficultyMedium},
		{75, encounter.DifficultyHard},
		{99, encounter.DifficultyHard},
		{100, encounter.DifficultyDeadly},
		{149, encounter.DifficultyDeadly},
		{150, encounter.DifficultyMortal},
		{500, encounter.DifficultyMortal},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, encounter.Classify(tc.xp, th),
			"classification for %d adjusted XP", tc.xp)
	}
}

// TestAssess_SoloGoblinIsHard verifies the canonical solo sizing: a single
// 50 XP goblin against a level 1 hero lands in the hard band once the small
// party multiplier kicks in.
func TestAssess_SoloGoblinIsHard(t *testing.T) {
	got := encounter.Assess([]int{50}, 1, 1)

	want := encounter.Assessment{
		Difficulty:   encounter.DifficultyHard,
		BaseXP:       50,
		AdjustedXP:   75,
		Multiplier:   1.5,
		Thresholds:   encounter.Thresholds{Easy: 25, Medium: 50, Hard: 75, Deadly: 100},
		MonsterCount: 1,
		PartySize:    1,
		PartyLevel:   1,
	}
	assert.Equal(t, want, got, "solo goblin assessment must match the worked example")
}

// TestAssess_GoblinPairOverwhelmsSoloHero verifies that two goblins push a
// level 1 solo encounter past the mortal line.
func TestAssess_GoblinPairOverwhelmsSoloHero(t *testing.T) {
	got := encounter.Assess([]int{50, 50}, 1, 1)

	assert.Equal(t, encounter.DifficultyMortal, got.Difficulty,
		"two goblins vs one level 1 hero must be mortal")
	assert.Equal(t, 100, got.BaseXP, "base XP must be the plain sum")
	assert.Equal(t, 2.0, got.Multiplier, "a pair vs a solo hero steps up to x2")
	assert.Equal(t, 200, got.AdjustedXP, "adjusted XP must apply the multiplier")
}

// TestAssess_FullPartyShrugsOffGoblins verifies the same monsters assess far
// lighter against a standard party.
func TestAssess_FullPartyShrugsOffGoblins(t *testing.T) {
	got := encounter.Assess([]int{50, 50, 50, 50}, 3, 4)

	assert.Equal(t, encounter.DifficultyEasy, got.Difficulty,
		"four goblins vs four level 3 characters must be easy")
	assert.Equal(t, 200, got.BaseXP, "base XP must be the plain sum")
	assert.Equal(t, 2.0, got.Multiplier, "four monsters vs a standard party uses x2")
	assert.Equal(t, 400, got.AdjustedXP, "adjusted XP must apply the multiplier")
	assert.Equal(t, encounter.Thresholds{Easy: 300, Medium: 600, Hard: 900, Deadly: 1600},
		got.Thresholds, "thresholds must scale the level 3 row by the party size")
}

// TestAssess_EmptyEncounterIsTrivial verifies a fight with nobody in it.
func TestAssess_EmptyEncounterIsTrivial(t *testing.T) {
	got := encounter.Assess(nil, 4, 4)

	assert.Equal(t, encounter.DifficultyTrivial, got.Difficulty, "no monsters must be trivial")
	assert.Zero(t, got.BaseXP, "base XP must be zero")
	assert.Zero(t, got.AdjustedXP, "adjusted XP must be zero")
	assert.Zero(t, got.MonsterCount, "monster count must be zero")
}

// TestAssessment_Describe verifies the one-line Spanish rendering used by
// the session log.
func TestAssessment_Describe(t *testing.T) {
	a := encounter.Assess([]int{50}, 1, 1)

	got := a.Describe()
	require.Equal(t,
		"Encuentro DIFÍCIL: 50 XP base × 1.5 = 75 XP ajustado (umbrales: fácil 25, medio 50, difícil 75, letal 100)",
		got, "Describe must render the worked example verbatim")
}

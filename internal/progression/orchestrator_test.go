package progression

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type memorySkills struct {
	maps      map[SkillKind]SkillMap
	writes    int
	updateErr error
}

func newMemorySkills(tech, soft SkillMap) *memorySkills {
	m := &memorySkills{maps: map[SkillKind]SkillMap{}}
	if tech != nil {
		m.maps[TechSkills] = tech
	}
	if soft != nil {
		m.maps[SoftSkills] = soft
	}
	return m
}

func (m *memorySkills) GetSkills(_ context.Context, _ string, kind SkillKind) (SkillMap, error) {
	skills, ok := m.maps[kind]
	if !ok {
		return nil, ErrSkillsNotFound
	}
	return skills.Clone(), nil
}

func (m *memorySkills) UpdateSkills(_ context.Context, _ string, kind SkillKind, skills SkillMap) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.writes++
	m.maps[kind] = skills.Clone()
	return nil
}

type countingObserver struct {
	violations int
	failures   int
	deltas     []int
}

func (c *countingObserver) ContractViolation(SkillKind) { c.violations++ }
func (c *countingObserver) ResolutionFailure(SkillKind) { c.failures++ }
func (c *countingObserver) SkillDelta(_ SkillKind, d int) { c.deltas = append(c.deltas, d) }

func entry(level int, intensity float64) AssessmentEntry {
	return AssessmentEntry{SkillLevelDemonstrated: level, ProgressionIntensity: intensity, Reasoning: "test"}
}

func TestApply_UpdatesDeclaredSkills(t *testing.T) {
	repo := newMemorySkills(SkillMap{"Python": 50, "SQL": 60, "Docker": 40}, nil)
	obs := &countingObserver{}
	orc := NewOrchestrator(repo, zap.NewNop(), WithObserver(obs))

	res, err := orc.Apply(context.Background(), ApplyInput{
		ProfileID: "u1",
		Contract: ChallengeSkillContract{
			AffectedSkills: []string{"Python", "SQL"},
			Category:       CategoryCode,
			Difficulty:     DifficultyMedium,
		},
		Assessment: map[string]AssessmentEntry{
			"Python": entry(75, 0.7),
			"SQL":    entry(60, 0.5),
			"Docker": entry(90, 1),
		},
		OverallScore:  85,
		AttemptNumber: 1,
	})
	require.NoError(t, err)

	assert.Equal(t, TechSkills, res.SkillType)
	assert.Equal(t, []string{"Python", "SQL"}, res.SkillsUpdated)
	assert.Equal(t, 2, res.Deltas["Python"])
	assert.Equal(t, 52, res.NewValues["Python"])
	assert.Equal(t, 0, res.Deltas["SQL"])
	assert.NotContains(t, res.SkillsUpdated, "Docker")
	assert.Equal(t, []string{"Docker"}, res.Dropped)

	assert.Equal(t, "Python", res.TargetSkill)
	assert.Equal(t, 2, res.DeltaApplied)
	assert.Equal(t, 52, res.UpdatedSkillValue)

	assert.Equal(t, 1, repo.writes)
	assert.Equal(t, SkillMap{"Python": 52, "SQL": 60, "Docker": 40}, repo.maps[TechSkills])
	assert.Equal(t, 1, obs.violations)
	assert.Len(t, obs.deltas, 2)
}

func TestApply_ContractViolationIsLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	repo := newMemorySkills(SkillMap{"React": 55, "Vue": 30}, nil)
	orc := NewOrchestrator(repo, zap.New(core))

	res, err := orc.Apply(context.Background(), ApplyInput{
		ProfileID: "u1",
		Contract: ChallengeSkillContract{
			AffectedSkills: []string{"React"},
			Category:       CategoryCode,
			Difficulty:     DifficultyEasy,
		},
		Assessment: map[string]AssessmentEntry{
			"React": entry(70, 0.6),
			"Vue":   entry(80, 0.9),
		},
		OverallScore:  78,
		AttemptNumber: 1,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"React"}, res.SkillsUpdated)
	assert.Equal(t, 30, repo.maps[TechSkills]["Vue"])
	require.Equal(t, 1, logs.FilterField(zap.String("skill", "Vue")).Len())
}

func TestApply_SoftSkillsForDailyTask(t *testing.T) {
	repo := newMemorySkills(SkillMap{"Python": 50}, SkillMap{"Comunicação": 60, "Organização": 70})
	orc := NewOrchestrator(repo, nil)

	res, err := orc.Apply(context.Background(), ApplyInput{
		ProfileID: "u1",
		Contract: ChallengeSkillContract{
			AffectedSkills: []string{"Comunicação Técnica"},
			Category:       CategoryDailyTask,
			Difficulty:     DifficultyMedium,
		},
		Assessment:    map[string]AssessmentEntry{"Comunicação Técnica": entry(80, 0.8)},
		OverallScore:  92,
		AttemptNumber: 1,
	})
	require.NoError(t, err)

	assert.Equal(t, SoftSkills, res.SkillType)
	assert.Equal(t, []string{"Comunicação"}, res.SkillsUpdated)
	assert.Positive(t, res.Deltas["Comunicação"])
	assert.Equal(t, SkillMap{"Python": 50}, repo.maps[TechSkills])
}

func TestApply_DeduplicatesResolvedSkill(t *testing.T) {
	repo := newMemorySkills(nil, SkillMap{"Comunicação": 60})
	obs := &countingObserver{}
	orc := NewOrchestrator(repo, nil, WithObserver(obs))

	res, err := orc.Apply(context.Background(), ApplyInput{
		ProfileID: "u1",
		Contract: ChallengeSkillContract{
			AffectedSkills: []string{"Comunicação Escrita", "Comunicação Técnica"},
			Category:       CategoryDailyTask,
			Difficulty:     DifficultyHard,
		},
		Assessment: map[string]AssessmentEntry{
			"Comunicação Escrita": entry(80, 0.5),
			"Comunicação Técnica": entry(100, 1),
		},
		OverallScore:  80,
		AttemptNumber: 1,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Comunicação"}, res.SkillsUpdated)
	assert.Len(t, obs.deltas, 1)

	// 只应用第一个评估: 20*0.5*1.5*1.3*0.7311/10 = 1.43
	assert.Equal(t, 1, res.Deltas["Comunicação"])
	assert.Equal(t, 61, repo.maps[SoftSkills]["Comunicação"])
}

func TestApply_UnresolvedSkipped(t *testing.T) {
	repo := newMemorySkills(SkillMap{"Python": 50}, nil)
	obs := &countingObserver{}
	orc := NewOrchestrator(repo, nil, WithObserver(obs))

	res, err := orc.Apply(context.Background(), ApplyInput{
		ProfileID: "u1",
		Contract: ChallengeSkillContract{
			AffectedSkills: []string{"Rust"},
			Category:       CategoryCode,
			Difficulty:     DifficultyMedium,
		},
		Assessment:    map[string]AssessmentEntry{"Rust": entry(80, 1)},
		OverallScore:  90,
		AttemptNumber: 1,
	})
	require.NoError(t, err)

	assert.Empty(t, res.SkillsUpdated)
	assert.Equal(t, []string{"Rust"}, res.Unresolved)
	assert.Equal(t, 1, obs.failures)
	assert.Zero(t, repo.writes)
	assert.Empty(t, res.TargetSkill)
}

func TestApply_ClampsToRange(t *testing.T) {
	repo := newMemorySkills(SkillMap{"Go": 98, "SQL": 1}, nil)
	orc := NewOrchestrator(repo, nil)

	res, err := orc.Apply(context.Background(), ApplyInput{
		ProfileID: "u1",
		Contract: ChallengeSkillContract{
			AffectedSkills: []string{"Go"},
			Category:       CategoryOrganization,
			Difficulty:     DifficultyHard,
		},
		Assessment:    map[string]AssessmentEntry{"Go": entry(100, 1)},
		OverallScore:  95,
		AttemptNumber: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Deltas["Go"])
	assert.Equal(t, 100, res.NewValues["Go"])

	res, err = orc.Apply(context.Background(), ApplyInput{
		ProfileID: "u1",
		Contract: ChallengeSkillContract{
			AffectedSkills: []string{"SQL"},
			Category:       CategoryCode,
			Difficulty:     DifficultyMedium,
		},
		Assessment:    map[string]AssessmentEntry{"SQL": entry(0, -0.5)},
		OverallScore:  10,
		AttemptNumber: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, -2, res.Deltas["SQL"])
	assert.Equal(t, 0, res.NewValues["SQL"])
}

func TestApply_SkillsNotFound(t *testing.T) {
	repo := newMemorySkills(nil, nil)
	orc := NewOrchestrator(repo, nil)

	_, err := orc.Apply(context.Background(), ApplyInput{
		ProfileID:     "u1",
		Contract:      ChallengeSkillContract{AffectedSkills: []string{"Python"}, Category: CategoryCode},
		Assessment:    map[string]AssessmentEntry{"Python": entry(80, 1)},
		OverallScore:  80,
		AttemptNumber: 1,
	})
	assert.ErrorIs(t, err, ErrSkillsNotFound)
	assert.Zero(t, repo.writes)
}

func TestApply_UpdateFailurePropagates(t *testing.T) {
	repo := newMemorySkills(SkillMap{"Python": 50}, nil)
	repo.updateErr = errors.New("db down")
	orc := NewOrchestrator(repo, nil)

	_, err := orc.Apply(context.Background(), ApplyInput{
		ProfileID:     "u1",
		Contract:      ChallengeSkillContract{AffectedSkills: []string{"Python"}, Category: CategoryCode},
		Assessment:    map[string]AssessmentEntry{"Python": entry(80, 1)},
		OverallScore:  80,
		AttemptNumber: 1,
	})
	assert.ErrorContains(t, err, "db down")
}

func TestProgress_LegacyPath(t *testing.T) {
	repo := newMemorySkills(SkillMap{"Python": 50}, nil)
	orc := NewOrchestrator(repo, nil)
	legacy := entry(75, 0.7)

	res, err := orc.Progress(context.Background(), ProgressInput{
		ProfileID:        "u1",
		TargetSkill:      "Python",
		Category:         CategoryCode,
		Difficulty:       DifficultyMedium,
		LegacyAssessment: &legacy,
		OverallScore:     85,
		AttemptNumber:    1,
	})
	require.NoError(t, err)

	assert.Equal(t, "Python", res.TargetSkill)
	assert.Equal(t, 2, res.DeltaApplied)
	assert.Equal(t, 52, res.UpdatedSkillValue)
}

func TestProgress_PrefersMultiSkill(t *testing.T) {
	repo := newMemorySkills(SkillMap{"Python": 50, "SQL": 50}, nil)
	orc := NewOrchestrator(repo, nil)
	legacy := entry(100, 1)

	res, err := orc.Progress(context.Background(), ProgressInput{
		ProfileID:        "u1",
		AffectedSkills:   []string{"SQL"},
		TargetSkill:      "Python",
		Category:         CategoryCode,
		Difficulty:       DifficultyMedium,
		SkillsAssessment: map[string]AssessmentEntry{"SQL": entry(75, 0.7)},
		LegacyAssessment: &legacy,
		OverallScore:     85,
		AttemptNumber:    1,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"SQL"}, res.SkillsUpdated)
	assert.Equal(t, 50, repo.maps[TechSkills]["Python"])
}

func TestProgress_NothingToApply(t *testing.T) {
	orc := NewOrchestrator(newMemorySkills(SkillMap{"Python": 50}, nil), nil)

	_, err := orc.Progress(context.Background(), ProgressInput{
		ProfileID:      "u1",
		AffectedSkills: []string{"Python"},
		Category:       CategoryCode,
	})
	assert.ErrorIs(t, err, ErrNoAssessment)
}

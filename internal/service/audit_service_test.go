package service

import (
	"context"
	"testing"

	"praxis_backend/internal/model"
	"praxis_backend/internal/progression"
	"praxis_backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditService_SkillMismatches(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedSkills(t, db, testProfileID, progression.SkillMap{"Python": 70}, nil)

	clean := seedChallenge(t, db, testProfileID, "code", codeChallengeDesc("Python"), "easy")
	drift := seedChallenge(t, db, testProfileID, "code", codeChallengeDesc("Python", "Kubernetes"), "easy")

	subRepo := repository.NewSubmissionRepository(db)
	addScored := func(challengeID uint, raw string) {
		sub := &model.Submission{ProfileID: testProfileID, ChallengeID: challengeID, Status: model.StatusScored, AttemptNumber: 1}
		require.NoError(t, subRepo.Create(ctx, sub))
		require.NoError(t, subRepo.SaveFeedback(ctx, &model.SubmissionFeedback{
			SubmissionID: sub.ID, Feedback: "ok", RawAIResponse: []byte(raw),
		}))
	}
	addScored(clean.ID, `{"skills_assessment": {"Python": {"skill_level_demonstrated": 80, "progression_intensity": 0.5}}}`)
	addScored(drift.ID, `{"skills_assessment": [
		{"skill": "Python", "skill_level_demonstrated": 80, "progression_intensity": 0.5, "reasoning": ""},
		{"skill": "React", "skill_level_demonstrated": 60, "progression_intensity": 0.2, "reasoning": ""}]}`)

	evaluating := &model.Submission{ProfileID: testProfileID, ChallengeID: drift.ID, Status: model.StatusEvaluating, AttemptNumber: 2}
	require.NoError(t, subRepo.Create(ctx, evaluating))
	require.NoError(t, subRepo.SaveFeedback(ctx, &model.SubmissionFeedback{SubmissionID: evaluating.ID, Feedback: "x", RawAIResponse: []byte(`{}`)}))

	svc := NewAuditService(subRepo, repository.NewChallengeRepository(db), repository.NewAttributesRepository(db), nil)
	report, err := svc.SkillMismatches(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Analyzed)
	assert.Equal(t, 1, report.WithIssues)
	assert.Equal(t, 1, report.ExtraSkills)
	assert.Equal(t, 1, report.MissingSkills)
	assert.Equal(t, 1, report.NotOwnedSkills)

	require.Len(t, report.Mismatches, 1)
	m := report.Mismatches[0]
	assert.Equal(t, drift.ID, m.ChallengeID)
	assert.Equal(t, []string{"React"}, m.NotDeclared)
	assert.Equal(t, []string{"Kubernetes"}, m.NotAssessed)
	assert.Equal(t, []string{"React"}, m.NotOwned)
	assert.Equal(t, 1, m.UserTechSkills)
}

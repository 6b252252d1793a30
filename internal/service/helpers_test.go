package service

import (
	"context"
	"fmt"
	"praxis_backend/internal/config"
	"praxis_backend/internal/model"
	"praxis_backend/internal/progression"
	"praxis_backend/internal/repository"
	"praxis_backend/pkg/database"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testProfileID = "11111111-1111-1111-1111-111111111111"

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open(&config.DatabaseConfig{
		Type:         "sqlite",
		Path:         fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
		MaxOpenConns: 1,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func seedSkills(t *testing.T, db *gorm.DB, profileID string, tech, soft progression.SkillMap) {
	t.Helper()
	attrs := &model.Attributes{UserID: profileID, CareerGoal: "Backend"}
	if tech != nil {
		require.NoError(t, attrs.SetSkills(progression.TechSkills, tech))
	}
	if soft != nil {
		require.NoError(t, attrs.SetSkills(progression.SoftSkills, soft))
	}
	require.NoError(t, repository.NewAttributesRepository(db).Save(context.Background(), attrs))
}

func seedChallenge(t *testing.T, db *gorm.DB, profileID, category string, desc model.ChallengeDescription, level string) *model.Challenge {
	t.Helper()
	rawDesc, err := model.ToJSON(desc)
	require.NoError(t, err)
	rawDiff, err := model.ToJSON(model.ChallengeDifficulty{Level: level, TimeLimit: 45})
	require.NoError(t, err)

	ch := &model.Challenge{
		ProfileID:   profileID,
		Title:       "Desafio " + category,
		Description: rawDesc,
		Difficulty:  rawDiff,
		Category:    category,
	}
	require.NoError(t, repository.NewChallengeRepository(db).Create(context.Background(), ch))
	return ch
}

func codeChallengeDesc(skills ...string) model.ChallengeDescription {
	return model.ChallengeDescription{
		Text:           "Implemente um endpoint de listagem paginada",
		Type:           model.ChallengeTypeCode,
		Language:       "python",
		EvalCriteria:   []string{"corretude", "legibilidade"},
		AffectedSkills: skills,
	}
}

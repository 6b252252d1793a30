package service

import (
	"context"
	"testing"
	"time"

	"praxis_backend/internal/config"
	"praxis_backend/internal/model"
	"praxis_backend/internal/repository"
	"praxis_backend/internal/util"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testChallengesConfig = config.ChallengesConfig{DefaultActiveLimit: 3, MaxActiveLimit: 10}

func newChallengeService(db *gorm.DB, rdb *redis.Client) *ChallengeService {
	return NewChallengeService(repository.NewChallengeRepository(db), rdb, testChallengesConfig, time.Minute, nil)
}

func validChallengeRequest() CreateChallengeRequest {
	return CreateChallengeRequest{
		Title:       "API de tarefas",
		Description: codeChallengeDesc("Python", "FastAPI"),
		Difficulty:  model.ChallengeDifficulty{Level: "Médio", TimeLimit: 60},
		Category:    "code",
	}
}

func TestChallengeService_CreateValidation(t *testing.T) {
	db := newTestDB(t)
	svc := newChallengeService(db, nil)

	tests := []struct {
		name   string
		mutate func(r *CreateChallengeRequest)
		field  string
	}{
		{"blank title", func(r *CreateChallengeRequest) { r.Title = "  " }, "title"},
		{"unknown category", func(r *CreateChallengeRequest) { r.Category = "quiz" }, "category"},
		{"unknown difficulty", func(r *CreateChallengeRequest) { r.Difficulty.Level = "extremo" }, "difficulty.level"},
		{"negative time limit", func(r *CreateChallengeRequest) { r.Difficulty.TimeLimit = -1 }, "difficulty.time_limit"},
		{"unknown type", func(r *CreateChallengeRequest) { r.Description.Type = "video" }, "description.type"},
		{"empty skill name", func(r *CreateChallengeRequest) { r.Description.AffectedSkills = []string{"Python", " "} }, "description.affected_skills"},
		{"duplicate skill", func(r *CreateChallengeRequest) { r.Description.AffectedSkills = []string{"SQL", "SQL"} }, "description.affected_skills"},
		{"no skills at all", func(r *CreateChallengeRequest) { r.Description.AffectedSkills = nil }, "description.affected_skills"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validChallengeRequest()
			tt.mutate(&req)
			_, err := svc.Create(context.Background(), testProfileID, req)
			require.Error(t, err)

			var appErr *util.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, util.KindValidation, appErr.Kind)
			assert.Equal(t, tt.field, appErr.Details["field"])
		})
	}
}

func TestChallengeService_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	svc := newChallengeService(db, nil)
	ctx := context.Background()

	req := validChallengeRequest()
	req.FS = &model.ChallengeFS{Files: []string{"main.py"}, Contents: map[string]string{"main.py": ""}}
	req.TemplateCode = []byte(`[{"id":"s1"}]`)
	created, err := svc.Create(ctx, testProfileID, req)
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	got, err := svc.Get(ctx, testProfileID, created.ID)
	require.NoError(t, err)
	desc, err := got.ParsedDescription()
	require.NoError(t, err)
	assert.Equal(t, []string{"Python", "FastAPI"}, desc.AffectedSkills)
	assert.JSONEq(t, `[{"id":"s1"}]`, string(got.TemplateCode))

	_, err = svc.Get(ctx, "another-profile", created.ID)
	assert.True(t, util.IsKind(err, util.KindNotFound))
}

func TestChallengeService_ListActive(t *testing.T) {
	db := newTestDB(t)
	svc := newChallengeService(db, nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.Create(ctx, testProfileID, validChallengeRequest())
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, "another-profile", validChallengeRequest())
	require.NoError(t, err)

	list, err := svc.ListActive(ctx, testProfileID, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Greater(t, list[0].ID, list[1].ID)

	list, err = svc.ListActive(ctx, testProfileID, 10)
	require.NoError(t, err)
	assert.Len(t, list, 5)

	for _, limit := range []int{-1, 11} {
		_, err = svc.ListActive(ctx, testProfileID, limit)
		assert.True(t, util.IsKind(err, util.KindValidation), "limit=%d", limit)
	}

	empty, err := svc.ListActive(ctx, "nobody", 3)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestChallengeService_UnreachableCacheFallsBackToDatabase(t *testing.T) {
	db := newTestDB(t)
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { rdb.Close() })
	svc := newChallengeService(db, rdb)
	ctx := context.Background()

	_, err := svc.Create(ctx, testProfileID, validChallengeRequest())
	require.NoError(t, err)

	list, err := svc.ListActive(ctx, testProfileID, 3)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

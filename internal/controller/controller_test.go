package controller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"praxis_backend/internal/config"
	"praxis_backend/internal/middleware"
	"praxis_backend/internal/progression"
	"praxis_backend/internal/repository"
	"praxis_backend/internal/service"
	"praxis_backend/internal/util"
	"praxis_backend/pkg/database"
	"praxis_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const devUserID = config.DefaultDevUserID

func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger.Log = zap.NewNop()

	db, err := database.Open(&config.DatabaseConfig{
		Type:         "sqlite",
		Path:         fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
		MaxOpenConns: 1,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	profileRepo := repository.NewProfileRepository(db)
	attrsRepo := repository.NewAttributesRepository(db)
	challengeRepo := repository.NewChallengeRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)

	challengeSvc := service.NewChallengeService(challengeRepo, nil,
		config.ChallengesConfig{DefaultActiveLimit: 3, MaxActiveLimit: 10}, time.Minute, nil)
	submissionSvc := service.NewSubmissionService(challengeRepo, submissionRepo, attrsRepo,
		service.FakeEvaluator{}, progression.NewOrchestrator(attrsRepo, nil), nil)

	health := NewHealthController(db, nil, "fake")
	challenges := NewChallengeController(challengeSvc)
	submissions := NewSubmissionController(submissionSvc)
	attributes := NewAttributesController(service.NewAttributesService(attrsRepo, nil))
	profiles := NewProfileController(service.NewProfileService(profileRepo, attrsRepo, nil))

	r := gin.New()
	r.GET("/healthz", health.HealthCheck)
	api := r.Group("/api", middleware.AuthMiddleware(config.AuthConfig{
		DevUserID: devUserID,
		DevEmail:  "dev@mock.local",
	}, nil))
	api.POST("/challenges", challenges.Create)
	api.GET("/challenges/active", challenges.ListActive)
	api.GET("/challenges/:id", challenges.Get)
	api.POST("/submissions", submissions.Create)
	api.GET("/submissions/:id", submissions.Get)
	api.GET("/attributes/:profile_id", attributes.Get)
	api.PATCH("/attributes/:profile_id", attributes.Patch)
	api.GET("/profile", profiles.Me)
	api.POST("/dev/setup-mock-data", profiles.SetupMockData)
	return r, db
}

type envelope struct {
	Code      int             `json:"code"`
	Message   string          `json:"message"`
	ErrorType util.ErrorKind  `json:"error"`
	Details   map[string]any  `json:"details"`
	Data      json.RawMessage `json:"data"`
}

func call(t *testing.T, r http.Handler, method, path string, body any) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func challengePayload() gin.H {
	return gin.H{
		"title":    "CRUD de tarefas",
		"category": "code",
		"difficulty": gin.H{
			"level":      "Médio",
			"time_limit": 60,
		},
		"description": gin.H{
			"text":            "Crie endpoints de tarefas",
			"type":            "codigo",
			"language":        "python",
			"eval_criteria":   []string{"corretude"},
			"affected_skills": []string{"Python", "APIs REST"},
			"hints":           []string{},
		},
	}
}

func TestHealthCheck(t *testing.T) {
	r, _ := newTestRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","components":{"database":"up","ai":"fake"}}`, w.Body.String())
}

func TestSubmissionFlow(t *testing.T) {
	r, _ := newTestRouter(t)

	code, env := call(t, r, http.MethodPost, "/api/dev/setup-mock-data", nil)
	require.Equal(t, http.StatusOK, code)
	var setup service.DevSetupResult
	require.NoError(t, json.Unmarshal(env.Data, &setup))
	assert.True(t, setup.AttributesCreated)
	assert.Equal(t, devUserID, setup.ProfileID)

	code, env = call(t, r, http.MethodPost, "/api/challenges", challengePayload())
	require.Equal(t, http.StatusCreated, code)
	var created struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))

	code, env = call(t, r, http.MethodPost, "/api/submissions", gin.H{
		"challenge_id": created.ID,
		"submitted_code": gin.H{
			"type":  "codigo",
			"files": gin.H{"main.py": "print('ok')"},
		},
	})
	require.Equal(t, http.StatusOK, code)
	var result service.SubmissionResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 88, result.Score)
	require.NotNil(t, result.SkillsProgression)
	assert.ElementsMatch(t, []string{"Python", "APIs REST"}, result.SkillsProgression.SkillsUpdated)

	code, env = call(t, r, http.MethodGet, fmt.Sprintf("/api/submissions/%d", result.SubmissionID), nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"status":"scored"`)

	code, env = call(t, r, http.MethodGet, "/api/attributes/"+devUserID, nil)
	require.Equal(t, http.StatusOK, code)
	var view service.AttributesView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, result.SkillsProgression.NewValues["Python"], view.TechSkills["Python"])
}

func TestSubmission_Errors(t *testing.T) {
	r, _ := newTestRouter(t)

	code, env := call(t, r, http.MethodPost, "/api/submissions", gin.H{"submitted_code": gin.H{}})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, util.KindValidation, env.ErrorType)

	code, env = call(t, r, http.MethodPost, "/api/submissions", gin.H{"challenge_id": 999})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, util.KindNotFound, env.ErrorType)
	assert.Equal(t, "Desafio não encontrado", env.Message)

	code, _ = call(t, r, http.MethodGet, "/api/submissions/abc", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestChallengeEndpoints(t *testing.T) {
	r, _ := newTestRouter(t)

	invalid := challengePayload()
	invalid["category"] = "quiz"
	code, env := call(t, r, http.MethodPost, "/api/challenges", invalid)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "category", env.Details["field"])

	for i := 0; i < 4; i++ {
		code, _ = call(t, r, http.MethodPost, "/api/challenges", challengePayload())
		require.Equal(t, http.StatusCreated, code)
	}

	code, env = call(t, r, http.MethodGet, "/api/challenges/active", nil)
	require.Equal(t, http.StatusOK, code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 3)

	for _, q := range []string{"0", "11", "x"} {
		code, _ = call(t, r, http.MethodGet, "/api/challenges/active?limit="+q, nil)
		assert.Equal(t, http.StatusBadRequest, code, "limit=%s", q)
	}

	code, _ = call(t, r, http.MethodGet, "/api/challenges/12345", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestAttributesEndpoints(t *testing.T) {
	r, _ := newTestRouter(t)

	code, _ := call(t, r, http.MethodGet, "/api/attributes/"+devUserID, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, env := call(t, r, http.MethodPatch, "/api/attributes/"+devUserID, gin.H{"tech_skills": gin.H{"Go": 150}})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "tech_skills", env.Details["field"])

	code, _ = call(t, r, http.MethodPatch, "/api/attributes/"+devUserID, gin.H{"tech_skills": gin.H{"Go": 12.5}})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = call(t, r, http.MethodPatch, "/api/attributes/someone-else", gin.H{"career_goal": "x"})
	assert.Equal(t, http.StatusForbidden, code)

	code, env = call(t, r, http.MethodPatch, "/api/attributes/"+devUserID, gin.H{"career_goal": "SRE", "soft_skills": gin.H{"lideranca": 30}})
	require.Equal(t, http.StatusOK, code)
	var view service.AttributesView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, "SRE", view.CareerGoal)
	assert.Equal(t, 30, view.SoftSkills["lideranca"])
}

func TestProfileEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	code, _ := call(t, r, http.MethodGet, "/api/profile", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = call(t, r, http.MethodPost, "/api/dev/setup-mock-data", nil)
	require.Equal(t, http.StatusOK, code)

	code, env := call(t, r, http.MethodGet, "/api/profile", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"email":"dev@mock.local"`)
	assert.Contains(t, string(env.Data), `Usuário Teste (dev)`)
}

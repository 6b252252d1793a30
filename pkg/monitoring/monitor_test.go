package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"praxis_backend/internal/progression"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestProgressionObserver(t *testing.T) {
	obs := ProgressionObserver{}

	before := testutil.ToFloat64(ContractViolations.WithLabelValues("soft_skills"))
	obs.ContractViolation(progression.SoftSkills)
	obs.ContractViolation(progression.SoftSkills)
	assert.Equal(t, before+2, testutil.ToFloat64(ContractViolations.WithLabelValues("soft_skills")))

	before = testutil.ToFloat64(ResolutionFailures.WithLabelValues("tech_skills"))
	obs.ResolutionFailure(progression.TechSkills)
	assert.Equal(t, before+1, testutil.ToFloat64(ResolutionFailures.WithLabelValues("tech_skills")))

	obs.SkillDelta(progression.TechSkills, 3)
	assert.Equal(t, 1, testutil.CollectAndCount(SkillDeltas))
}

func TestMetricsMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(MetricsMiddleware())
	r.GET("/api/challenges/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	before := testutil.ToFloat64(RequestCounter.WithLabelValues("GET", "/api/challenges/:id", "200"))
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/challenges/42", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
	assert.Equal(t, before+2, testutil.ToFloat64(RequestCounter.WithLabelValues("GET", "/api/challenges/:id", "200")))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, 1.0, testutil.ToFloat64(RequestCounter.WithLabelValues("GET", "unmatched", "404")))
}

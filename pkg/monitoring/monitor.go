package monitoring

import (
	"strconv"
	"sync"
	"time"

	"praxis_backend/internal/progression"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 15, 60},
		},
		[]string{"method", "endpoint"},
	)

	ContractViolations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "progression_contract_violations_total",
			Help: "Assessed skills dropped because the challenge did not declare them",
		},
		[]string{"skill_type"},
	)

	ResolutionFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "progression_resolution_failures_total",
			Help: "Assessed skills that matched no skill in the user's profile",
		},
		[]string{"skill_type"},
	)

	SkillDeltas = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "progression_skill_delta",
			Help:    "Skill delta applied per updated skill",
			Buckets: prometheus.LinearBuckets(-10, 1, 21),
		},
		[]string{"skill_type"},
	)

	Evaluations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "submission_evaluations_total",
			Help: "Submission evaluations by outcome",
		},
		[]string{"outcome"},
	)
)

var registerOnce sync.Once

// Init 重复调用只注册一次
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			ContractViolations,
			ResolutionFailures,
			SkillDeltas,
			Evaluations,
		)
	})
}

// ProgressionObserver 把技能更新的事件写入 Prometheus
type ProgressionObserver struct{}

var _ progression.Observer = ProgressionObserver{}

func (ProgressionObserver) ContractViolation(kind progression.SkillKind) {
	ContractViolations.WithLabelValues(string(kind)).Inc()
}

func (ProgressionObserver) ResolutionFailure(kind progression.SkillKind) {
	ResolutionFailures.WithLabelValues(string(kind)).Inc()
}

func (ProgressionObserver) SkillDelta(kind progression.SkillKind, delta int) {
	SkillDeltas.WithLabelValues(string(kind)).Observe(float64(delta))
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		RequestCounter.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(c.Writer.Status()),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			endpoint,
		).Observe(time.Since(start).Seconds())
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

package progression

import "math"

type DeltaInput struct {
	CurrentLevel  int
	OverallScore  int
	Assessment    AssessmentEntry
	Difficulty    Difficulty
	AttemptNumber int
}

// CalculateDelta 根据 AI 的定性评估计算技能变化值。
// 结果未做区间限制，写回技能表时再 clamp 到 [0,100]。
func CalculateDelta(in DeltaInput) int {
	current := Clamp(in.CurrentLevel, 0, 100)
	score := Clamp(in.OverallScore, 0, 100)
	demonstrated := Clamp(in.Assessment.SkillLevelDemonstrated, 0, 100)
	intensity := clampFloat(in.Assessment.ProgressionIntensity, -1, 1)

	if intensity == 0 {
		return 0
	}

	gap := float64(demonstrated - current)
	raw := gap *
		intensity *
		NotaFactor(score, intensity) *
		in.Difficulty.Weight() *
		LearningCurve(current) *
		AttemptPenalty(in.AttemptNumber) / 10.0

	// 优秀的提交至少 +3，很差的提交至少 -2
	if score >= 90 && raw > 0 && raw < 3 {
		raw = 3
	}
	if score < 40 && raw < 0 && raw > -2 {
		raw = -2
	}

	return int(math.Round(raw))
}

// NotaFactor 总分因子。低于 50 分为负值，负向强度会放大退步。
func NotaFactor(score int, intensity float64) float64 {
	if score < 50 {
		f := float64(score-50) / 50.0
		if intensity < 0 {
			f *= 1 + math.Abs(intensity)
		}
		return f
	}

	switch {
	case score >= 90:
		return 2.0
	case score >= 75:
		return 1.5
	case score >= 60:
		return 1.0
	default:
		return 0.6
	}
}

// LearningCurve 以 70 为中心的 logistic 曲线，技能越高变化越小
func LearningCurve(current int) float64 {
	return 1.0 / (1.0 + math.Exp(float64(current-70)/10.0))
}

// AttemptPenalty 每多一次尝试幅度减 10%，最低 60%
func AttemptPenalty(attempt int) float64 {
	if attempt < 1 {
		attempt = 1
	}
	return math.Max(0.6, 1.0-0.1*float64(attempt-1))
}

package service

import (
	"encoding/json"
	"fmt"
	"math"
	"praxis_backend/internal/llm"
	"praxis_backend/internal/progression"
	"strings"
)

// Evaluation AI 评审结果。SkillsAssessment 为多技能格式，LegacyAssessment 为旧的单技能格式
type Evaluation struct {
	Score            int                                    `json:"nota_geral"`
	Metrics          map[string]int                         `json:"metricas"`
	Strengths        []string                               `json:"pontos_positivos"`
	Weaknesses       []string                               `json:"pontos_negativos"`
	Suggestions      []string                               `json:"sugestoes_melhoria"`
	Feedback         string                                 `json:"feedback_detalhado"`
	SkillsAssessment map[string]progression.AssessmentEntry `json:"skills_assessment,omitempty"`
	LegacyAssessment *progression.AssessmentEntry           `json:"skill_assessment,omitempty"`

	// Raw 模型原始输出，原样存入 raw_ai_response
	Raw json.RawMessage `json:"-"`
}

const (
	defaultScore    = 70
	defaultFeedback = "Sem detalhes"
)

// Summary 反馈摘要，由要点列表拼成
func (e *Evaluation) Summary() string {
	var b strings.Builder
	section := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(title)
		b.WriteString(":\n")
		for _, item := range items {
			b.WriteString("- ")
			b.WriteString(item)
			b.WriteString("\n")
		}
	}
	section("Pontos positivos", e.Strengths)
	section("Pontos a melhorar", e.Weaknesses)
	section("Sugestões", e.Suggestions)
	return strings.TrimSpace(b.String())
}

// EvaluationSchema 发给模型的结构化输出约束。
// 技能评估和指标用数组表示，结构化输出不支持动态键名
var EvaluationSchema = &llm.Schema{
	Name:        "submission-evaluation",
	Description: "Avaliação de uma submissão de desafio com análise por skill",
	Definition: map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required": []any{
			"nota_geral", "metricas", "pontos_positivos", "pontos_negativos",
			"sugestoes_melhoria", "feedback_detalhado", "skills_assessment",
		},
		"properties": map[string]any{
			"nota_geral": map[string]any{"type": "integer", "minimum": 0, "maximum": 100},
			"metricas": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []any{"criterio", "nota"},
					"properties": map[string]any{
						"criterio": map[string]any{"type": "string"},
						"nota":     map[string]any{"type": "integer", "minimum": 0, "maximum": 100},
					},
				},
			},
			"pontos_positivos":   stringList(),
			"pontos_negativos":   stringList(),
			"sugestoes_melhoria": stringList(),
			"feedback_detalhado": map[string]any{"type": "string"},
			"skills_assessment": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []any{"skill", "skill_level_demonstrated", "progression_intensity", "reasoning"},
					"properties": map[string]any{
						"skill":                    map[string]any{"type": "string"},
						"skill_level_demonstrated": map[string]any{"type": "integer", "minimum": 0, "maximum": 100},
						"progression_intensity":    map[string]any{"type": "number", "minimum": -1, "maximum": 1},
						"reasoning":                map[string]any{"type": "string"},
					},
				},
			},
		},
	},
}

func stringList() map[string]any {
	return map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
}

type rawAssessment struct {
	Skill                  string  `json:"skill"`
	SkillLevelDemonstrated float64 `json:"skill_level_demonstrated"`
	ProgressionIntensity   float64 `json:"progression_intensity"`
	Reasoning              string  `json:"reasoning"`
}

func (r rawAssessment) entry() progression.AssessmentEntry {
	return progression.AssessmentEntry{
		SkillLevelDemonstrated: progression.Clamp(int(math.Round(r.SkillLevelDemonstrated)), 0, 100),
		ProgressionIntensity:   math.Max(-1, math.Min(1, r.ProgressionIntensity)),
		Reasoning:              r.Reasoning,
	}
}

type rawMetric struct {
	Criterio string  `json:"criterio"`
	Nota     float64 `json:"nota"`
}

type rawEvaluation struct {
	Score            *float64        `json:"nota_geral"`
	Metrics          json.RawMessage `json:"metricas"`
	Strengths        []string        `json:"pontos_positivos"`
	Weaknesses       []string        `json:"pontos_negativos"`
	Suggestions      []string        `json:"sugestoes_melhoria"`
	Feedback         string          `json:"feedback_detalhado"`
	SkillsAssessment json.RawMessage `json:"skills_assessment"`
	SkillAssessment  *rawAssessment  `json:"skill_assessment"`
}

// ParseEvaluation 兼容两种输出：skills_assessment 可为数组或对象，
// 也接受旧的 skill_assessment 单技能格式。缺失的 nota_geral 和反馈使用默认值
func ParseEvaluation(raw json.RawMessage) (*Evaluation, error) {
	var r rawEvaluation
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("decode evaluation: %w", err)
	}

	eval := &Evaluation{
		Score:       defaultScore,
		Strengths:   r.Strengths,
		Weaknesses:  r.Weaknesses,
		Suggestions: r.Suggestions,
		Feedback:    strings.TrimSpace(r.Feedback),
		Raw:         raw,
	}
	if r.Score != nil {
		eval.Score = progression.Clamp(int(math.Round(*r.Score)), 0, 100)
	}
	if eval.Feedback == "" {
		eval.Feedback = defaultFeedback
	}

	metrics, err := parseMetrics(r.Metrics)
	if err != nil {
		return nil, err
	}
	eval.Metrics = metrics

	skills, err := parseSkillsAssessment(r.SkillsAssessment)
	if err != nil {
		return nil, err
	}
	eval.SkillsAssessment = skills

	if r.SkillAssessment != nil {
		entry := r.SkillAssessment.entry()
		eval.LegacyAssessment = &entry
	}

	return eval, nil
}

func parseMetrics(raw json.RawMessage) (map[string]int, error) {
	out := map[string]int{}
	if isEmptyJSON(raw) {
		return out, nil
	}

	if raw[0] == '[' {
		var list []rawMetric
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("decode metricas: %w", err)
		}
		for _, m := range list {
			if m.Criterio != "" {
				out[m.Criterio] = progression.Clamp(int(math.Round(m.Nota)), 0, 100)
			}
		}
		return out, nil
	}

	var byName map[string]float64
	if err := json.Unmarshal(raw, &byName); err != nil {
		return nil, fmt.Errorf("decode metricas: %w", err)
	}
	for k, v := range byName {
		out[k] = progression.Clamp(int(math.Round(v)), 0, 100)
	}
	return out, nil
}

func parseSkillsAssessment(raw json.RawMessage) (map[string]progression.AssessmentEntry, error) {
	if isEmptyJSON(raw) {
		return nil, nil
	}

	out := map[string]progression.AssessmentEntry{}
	if raw[0] == '[' {
		var list []rawAssessment
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("decode skills_assessment: %w", err)
		}
		for _, a := range list {
			label := strings.TrimSpace(a.Skill)
			if label == "" {
				continue
			}
			// 同名重复时保留第一条
			if _, seen := out[label]; !seen {
				out[label] = a.entry()
			}
		}
	} else {
		var byName map[string]rawAssessment
		if err := json.Unmarshal(raw, &byName); err != nil {
			return nil, fmt.Errorf("decode skills_assessment: %w", err)
		}
		for label, a := range byName {
			out[label] = a.entry()
		}
	}

	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func isEmptyJSON(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s == "" || s == "null" || s == "{}" || s == "[]"
}

package progression

import (
	"context"
	"errors"
	"sort"
	"strings"
)

// ErrSkillsNotFound 用户还没有对应类型的技能表
var ErrSkillsNotFound = errors.New("skills not found")

// SkillMap 技能名 -> 等级 [0,100]
type SkillMap map[string]int

func (m SkillMap) Clone() SkillMap {
	out := make(SkillMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Keys 返回排序后的技能名，保证遍历顺序稳定
func (m SkillMap) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type SkillKind string

const (
	TechSkills SkillKind = "tech_skills"
	SoftSkills SkillKind = "soft_skills"
)

type Category string

const (
	CategoryCode         Category = "code"
	CategoryDailyTask    Category = "daily-task"
	CategoryOrganization Category = "organization"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryCode, CategoryDailyTask, CategoryOrganization:
		return true
	}
	return false
}

// SkillKind daily-task 挑战影响软技能，其余影响技术技能
func (c Category) SkillKind() SkillKind {
	if c == CategoryDailyTask {
		return SoftSkills
	}
	return TechSkills
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// ParseDifficulty 兼容葡语难度标签（Fácil / Médio / Difícil），无法识别时返回 medium
func ParseDifficulty(level string) Difficulty {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "easy", "fácil", "facil":
		return DifficultyEasy
	case "hard", "difícil", "dificil":
		return DifficultyHard
	default:
		return DifficultyMedium
	}
}

// Weight 未知难度按 medium 处理
func (d Difficulty) Weight() float64 {
	switch d {
	case DifficultyEasy:
		return 0.7
	case DifficultyHard:
		return 1.3
	default:
		return 1.0
	}
}

// AssessmentEntry AI 对单个技能的评估
type AssessmentEntry struct {
	SkillLevelDemonstrated int     `json:"skill_level_demonstrated"`
	ProgressionIntensity   float64 `json:"progression_intensity"`
	Reasoning              string  `json:"reasoning"`
}

// ChallengeSkillContract 挑战声明允许影响的技能
type ChallengeSkillContract struct {
	AffectedSkills []string
	Category       Category
	Difficulty     Difficulty
}

func (c ChallengeSkillContract) allows(label string) bool {
	for _, s := range c.AffectedSkills {
		if s == label {
			return true
		}
	}
	return false
}

// Result 一次提交的技能变化结果
type Result struct {
	SkillsUpdated []string       `json:"skills_updated"`
	Deltas        map[string]int `json:"deltas"`
	NewValues     map[string]int `json:"new_values"`
	SkillType     SkillKind      `json:"skill_type"`

	// 兼容旧前端的单技能字段，取第一个更新的技能
	TargetSkill       string `json:"target_skill"`
	DeltaApplied      int    `json:"delta_applied"`
	UpdatedSkillValue int    `json:"updated_skill_value"`

	Dropped    []string `json:"dropped_skills,omitempty"`
	Unresolved []string `json:"unresolved_skills,omitempty"`
}

// SkillsRepository 技能表的读写
type SkillsRepository interface {
	GetSkills(ctx context.Context, profileID string, kind SkillKind) (SkillMap, error)
	UpdateSkills(ctx context.Context, profileID string, kind SkillKind, skills SkillMap) error
}

func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package model

import (
	"fmt"
	"praxis_backend/internal/progression"
	"time"

	"gorm.io/datatypes"
)

type ChallengeType string

const (
	ChallengeTypeCode     ChallengeType = "codigo"
	ChallengeTypeFreeText ChallengeType = "texto_livre"
	ChallengeTypePlanning ChallengeType = "planejamento"
)

func (t ChallengeType) Valid() bool {
	switch t {
	case ChallengeTypeCode, ChallengeTypeFreeText, ChallengeTypePlanning:
		return true
	}
	return false
}

// ChallengeDescription 挑战描述，存储在 description JSON 列
type ChallengeDescription struct {
	Text           string         `json:"text"`
	Type           ChallengeType  `json:"type"`
	Language       string         `json:"language,omitempty"`
	EvalCriteria   []string       `json:"eval_criteria"`
	TargetSkill    string         `json:"target_skill,omitempty"`
	AffectedSkills []string       `json:"affected_skills"`
	Hints          []string       `json:"hints"`
	Enunciado      map[string]any `json:"enunciado,omitempty"`
}

type ChallengeDifficulty struct {
	Level     string `json:"level"`
	TimeLimit int    `json:"time_limit"`
}

// ChallengeFS 代码类挑战的文件结构
type ChallengeFS struct {
	Files    []string          `json:"files"`
	Open     string            `json:"open,omitempty"`
	Contents map[string]string `json:"contents"`
}

type Challenge struct {
	ID           uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	ProfileID    string         `gorm:"type:varchar(36);index;not null" json:"profile_id"`
	Title        string         `gorm:"size:255;index;not null" json:"title"`
	Description  datatypes.JSON `json:"description"`
	Difficulty   datatypes.JSON `json:"difficulty"`
	FS           datatypes.JSON `json:"fs,omitempty"`
	Category     string         `gorm:"size:30;index" json:"category"`
	TemplateCode datatypes.JSON `json:"template_code,omitempty"`
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`
}

func (Challenge) TableName() string {
	return "challenges"
}

func (c *Challenge) ParsedDescription() (ChallengeDescription, error) {
	var d ChallengeDescription
	if err := DecodeJSON(c.Description, &d); err != nil {
		return d, fmt.Errorf("decode challenge %d description: %w", c.ID, err)
	}
	return d, nil
}

func (c *Challenge) ParsedDifficulty() (ChallengeDifficulty, error) {
	var d ChallengeDifficulty
	if err := DecodeJSON(c.Difficulty, &d); err != nil {
		return d, fmt.Errorf("decode challenge %d difficulty: %w", c.ID, err)
	}
	return d, nil
}

// DeclaredSkills 挑战声明影响的技能；旧挑战只有 target_skill
func (d ChallengeDescription) DeclaredSkills() []string {
	if len(d.AffectedSkills) > 0 {
		return d.AffectedSkills
	}
	if d.TargetSkill != "" {
		return []string{d.TargetSkill}
	}
	return nil
}

// SkillContract 技能更新时使用的挑战契约
func (c *Challenge) SkillContract() (progression.ChallengeSkillContract, error) {
	desc, err := c.ParsedDescription()
	if err != nil {
		return progression.ChallengeSkillContract{}, err
	}
	diff, err := c.ParsedDifficulty()
	if err != nil {
		return progression.ChallengeSkillContract{}, err
	}
	return progression.ChallengeSkillContract{
		AffectedSkills: desc.AffectedSkills,
		Category:       progression.Category(c.Category),
		Difficulty:     progression.ParseDifficulty(diff.Level),
	}, nil
}

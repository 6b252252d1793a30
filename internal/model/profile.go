package model

import (
	"fmt"
	"praxis_backend/internal/progression"
	"time"

	"gorm.io/datatypes"
)

// Profile 用户档案，ID 与认证服务签发的用户 ID 一致
type Profile struct {
	UUIDBase
	FullName  string `gorm:"size:200" json:"full_name"`
	Email     string `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Track     string `gorm:"size:50" json:"track"`
	LinkedIn  string `gorm:"size:255" json:"linkedin,omitempty"`
	GitHub    string `gorm:"size:255" json:"github,omitempty"`
	Portfolio string `gorm:"size:255" json:"portfolio,omitempty"`
}

func (Profile) TableName() string {
	return "profiles"
}

// Attributes 用户技能与职业目标，每个档案一条
type Attributes struct {
	ID           uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       string         `gorm:"type:varchar(36);uniqueIndex;not null" json:"profile_id"`
	CareerGoal   string         `gorm:"type:text" json:"career_goal"`
	SoftSkills   datatypes.JSON `json:"soft_skills"`
	TechSkills   datatypes.JSON `json:"tech_skills"`
	StrongSkills datatypes.JSON `json:"strong_skills"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

func (Attributes) TableName() string {
	return "attributes"
}

// SkillColumn 技能类型对应的列名
func SkillColumn(kind progression.SkillKind) (string, error) {
	switch kind {
	case progression.TechSkills:
		return "tech_skills", nil
	case progression.SoftSkills:
		return "soft_skills", nil
	}
	return "", fmt.Errorf("unknown skill kind %q", kind)
}

// Skills 列为空时返回 ok=false，区分“没有技能表”和“空技能表”
func (a *Attributes) Skills(kind progression.SkillKind) (progression.SkillMap, bool, error) {
	var raw datatypes.JSON
	switch kind {
	case progression.TechSkills:
		raw = a.TechSkills
	case progression.SoftSkills:
		raw = a.SoftSkills
	default:
		return nil, false, fmt.Errorf("unknown skill kind %q", kind)
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, false, nil
	}

	skills := progression.SkillMap{}
	if err := DecodeJSON(raw, &skills); err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", kind, err)
	}
	return skills, true, nil
}

func (a *Attributes) SetSkills(kind progression.SkillKind, skills progression.SkillMap) error {
	raw, err := ToJSON(skills)
	if err != nil {
		return err
	}
	switch kind {
	case progression.TechSkills:
		a.TechSkills = raw
	case progression.SoftSkills:
		a.SoftSkills = raw
	default:
		return fmt.Errorf("unknown skill kind %q", kind)
	}
	return nil
}

func (a *Attributes) StrongSkillMap() (progression.SkillMap, error) {
	skills := progression.SkillMap{}
	if err := DecodeJSON(a.StrongSkills, &skills); err != nil {
		return nil, err
	}
	return skills, nil
}

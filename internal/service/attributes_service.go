package service

import (
	"context"
	"errors"
	"fmt"
	"praxis_backend/internal/model"
	"praxis_backend/internal/progression"
	"praxis_backend/internal/repository"
	"praxis_backend/internal/util"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AttributesService struct {
	AttributesRepo *repository.AttributesRepository
	log            *zap.Logger
}

func NewAttributesService(attributesRepo *repository.AttributesRepository, log *zap.Logger) *AttributesService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AttributesService{AttributesRepo: attributesRepo, log: log}
}

// AttributesView 技能列统一以 map 形式返回，空列为 {}
type AttributesView struct {
	ProfileID    string               `json:"profile_id"`
	CareerGoal   string               `json:"career_goal"`
	SoftSkills   progression.SkillMap `json:"soft_skills"`
	TechSkills   progression.SkillMap `json:"tech_skills"`
	StrongSkills progression.SkillMap `json:"strong_skills"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// AttributesPatch 只更新非空字段
type AttributesPatch struct {
	CareerGoal   *string              `json:"career_goal,omitempty"`
	SoftSkills   progression.SkillMap `json:"soft_skills,omitempty"`
	TechSkills   progression.SkillMap `json:"tech_skills,omitempty"`
	StrongSkills progression.SkillMap `json:"strong_skills,omitempty"`
}

func (p AttributesPatch) validate() error {
	fields := []struct {
		name   string
		skills progression.SkillMap
	}{
		{"soft_skills", p.SoftSkills},
		{"tech_skills", p.TechSkills},
		{"strong_skills", p.StrongSkills},
	}
	for _, f := range fields {
		for _, name := range f.skills.Keys() {
			if v := f.skills[name]; v < 0 || v > 100 {
				return util.NewValidation(
					fmt.Sprintf("%s.%s deve estar entre 0 e 100, mas recebeu %d", f.name, name, v),
					f.name)
			}
		}
	}
	return nil
}

func toAttributesView(attrs *model.Attributes) (*AttributesView, error) {
	view := &AttributesView{
		ProfileID:    attrs.UserID,
		CareerGoal:   attrs.CareerGoal,
		SoftSkills:   progression.SkillMap{},
		TechSkills:   progression.SkillMap{},
		StrongSkills: progression.SkillMap{},
		UpdatedAt:    attrs.UpdatedAt,
	}
	if err := model.DecodeJSON(attrs.SoftSkills, &view.SoftSkills); err != nil {
		return nil, err
	}
	if err := model.DecodeJSON(attrs.TechSkills, &view.TechSkills); err != nil {
		return nil, err
	}
	if err := model.DecodeJSON(attrs.StrongSkills, &view.StrongSkills); err != nil {
		return nil, err
	}
	return view, nil
}

// Get 只能读取自己的技能
func (s *AttributesService) Get(ctx context.Context, callerID, profileID string) (*AttributesView, error) {
	if callerID != profileID {
		return nil, util.NewAuthorization("Sem permissão para acessar atributos de outro perfil")
	}

	attrs, err := s.AttributesRepo.FindByUserID(ctx, profileID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.NewNotFound("Atributos", profileID)
	}
	if err != nil {
		return nil, util.NewProcessing("buscar atributos", err)
	}

	view, err := toAttributesView(attrs)
	if err != nil {
		return nil, util.NewProcessing("ler atributos", err)
	}
	return view, nil
}

// Patch 不存在时创建
func (s *AttributesService) Patch(ctx context.Context, callerID, profileID string, patch AttributesPatch) (*AttributesView, error) {
	if callerID != profileID {
		return nil, util.NewAuthorization("Sem permissão para alterar atributos de outro perfil")
	}
	if err := patch.validate(); err != nil {
		return nil, err
	}

	attrs, err := s.AttributesRepo.FindByUserID(ctx, profileID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		attrs = &model.Attributes{UserID: profileID}
	} else if err != nil {
		return nil, util.NewProcessing("buscar atributos", err)
	}

	if patch.CareerGoal != nil {
		attrs.CareerGoal = *patch.CareerGoal
	}
	if patch.SoftSkills != nil {
		if err := attrs.SetSkills(progression.SoftSkills, patch.SoftSkills); err != nil {
			return nil, util.NewProcessing("atualizar atributos", err)
		}
	}
	if patch.TechSkills != nil {
		if err := attrs.SetSkills(progression.TechSkills, patch.TechSkills); err != nil {
			return nil, util.NewProcessing("atualizar atributos", err)
		}
	}
	if patch.StrongSkills != nil {
		raw, err := model.ToJSON(patch.StrongSkills)
		if err != nil {
			return nil, util.NewProcessing("atualizar atributos", err)
		}
		attrs.StrongSkills = raw
	}

	if err := s.AttributesRepo.Save(ctx, attrs); err != nil {
		return nil, util.NewProcessing("salvar atributos", err)
	}
	s.log.Info("Attributes updated", zap.String("profile_id", profileID))

	view, err := toAttributesView(attrs)
	if err != nil {
		return nil, util.NewProcessing("ler atributos", err)
	}
	return view, nil
}

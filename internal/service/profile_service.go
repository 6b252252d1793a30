package service

import (
	"context"
	"errors"
	"fmt"
	"praxis_backend/internal/model"
	"praxis_backend/internal/progression"
	"praxis_backend/internal/repository"
	"praxis_backend/internal/util"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ProfileService struct {
	ProfileRepo    *repository.ProfileRepository
	AttributesRepo *repository.AttributesRepository
	log            *zap.Logger
}

func NewProfileService(
	profileRepo *repository.ProfileRepository,
	attributesRepo *repository.AttributesRepository,
	log *zap.Logger,
) *ProfileService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProfileService{
		ProfileRepo:    profileRepo,
		AttributesRepo: attributesRepo,
		log:            log,
	}
}

func (s *ProfileService) Get(ctx context.Context, profileID string) (*model.Profile, error) {
	profile, err := s.ProfileRepo.FindByID(ctx, profileID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.NewNotFound("Perfil", profileID)
	}
	if err != nil {
		return nil, util.NewProcessing("buscar perfil", err)
	}
	return profile, nil
}

type DevSetupResult struct {
	Message           string `json:"message"`
	ProfileID         string `json:"profile_id"`
	ProfileCreated    bool   `json:"profile_created"`
	AttributesCreated bool   `json:"attributes_created"`
}

const mockCareerGoal = "Desenvolvedor Backend Pleno - Evoluir em arquitetura de sistemas, " +
	"testes automatizados e otimização de performance em APIs REST com Python/FastAPI"

func mockSoftSkills() progression.SkillMap {
	return progression.SkillMap{
		"comunicacao":         55,
		"trabalho_em_equipe":  60,
		"resolucao_problemas": 65,
		"adaptabilidade":      55,
		"lideranca":           45,
	}
}

func mockTechSkills() progression.SkillMap {
	return progression.SkillMap{
		"Python":                  70,
		"FastAPI":                 65,
		"SQL":                     60,
		"PostgreSQL":              55,
		"APIs REST":               70,
		"Git":                     65,
		"Docker":                  50,
		"Testes Unitários":        45,
		"Arquitetura de Software": 40,
	}
}

func mockProfile(profileID, email string) *model.Profile {
	name, _, _ := strings.Cut(email, "@")
	profile := &model.Profile{
		FullName: fmt.Sprintf("Usuário Teste (%s)", name),
		Email:    email,
		Track:    "backend",
	}
	profile.ID = profileID
	return profile
}

// SetupDevData 为当前用户补齐开发用的档案和技能，已存在的数据不覆盖
func (s *ProfileService) SetupDevData(ctx context.Context, profileID, email string) (*DevSetupResult, error) {
	if profileID == "" || email == "" {
		return nil, util.NewValidation("Usuário sem id ou email", "email")
	}
	result := &DevSetupResult{
		Message:   "Dados mock configurados com sucesso! Agora você pode gerar desafios.",
		ProfileID: profileID,
	}

	_, err := s.ProfileRepo.FindByID(ctx, profileID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := s.ProfileRepo.Create(ctx, mockProfile(profileID, email)); err != nil {
			return nil, util.NewProcessing("criar perfil", err)
		}
		result.ProfileCreated = true
	case err != nil:
		return nil, util.NewProcessing("buscar perfil", err)
	}

	_, err = s.AttributesRepo.FindByUserID(ctx, profileID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		attrs := &model.Attributes{UserID: profileID, CareerGoal: mockCareerGoal}
		if err := attrs.SetSkills(progression.SoftSkills, mockSoftSkills()); err != nil {
			return nil, util.NewProcessing("criar atributos", err)
		}
		if err := attrs.SetSkills(progression.TechSkills, mockTechSkills()); err != nil {
			return nil, util.NewProcessing("criar atributos", err)
		}
		attrs.StrongSkills, _ = model.ToJSON(progression.SkillMap{})
		if err := s.AttributesRepo.Save(ctx, attrs); err != nil {
			return nil, util.NewProcessing("criar atributos", err)
		}
		result.AttributesCreated = true
	case err != nil:
		return nil, util.NewProcessing("buscar atributos", err)
	}

	s.log.Info("Dev data ready",
		zap.String("profile_id", profileID),
		zap.Bool("profile_created", result.ProfileCreated),
		zap.Bool("attributes_created", result.AttributesCreated))
	return result, nil
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"praxis_backend/internal/config"
	"praxis_backend/internal/model"
	"praxis_backend/internal/progression"
	"praxis_backend/internal/repository"
	"praxis_backend/internal/util"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const activeChallengesKeyPrefix = "challenges:active:"

type ChallengeService struct {
	ChallengeRepo *repository.ChallengeRepository
	Redis         *redis.Client
	Cfg           config.ChallengesConfig
	CacheTTL      time.Duration
	log           *zap.Logger
}

// NewChallengeService rdb 为 nil 时不使用缓存
func NewChallengeService(
	challengeRepo *repository.ChallengeRepository,
	rdb *redis.Client,
	cfg config.ChallengesConfig,
	cacheTTL time.Duration,
	log *zap.Logger,
) *ChallengeService {
	if log == nil {
		log = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &ChallengeService{
		ChallengeRepo: challengeRepo,
		Redis:         rdb,
		Cfg:           cfg,
		CacheTTL:      cacheTTL,
		log:           log,
	}
}

type CreateChallengeRequest struct {
	Title        string                     `json:"title" binding:"required"`
	Description  model.ChallengeDescription `json:"description"`
	Difficulty   model.ChallengeDifficulty  `json:"difficulty"`
	FS           *model.ChallengeFS         `json:"fs,omitempty"`
	Category     string                     `json:"category" binding:"required"`
	TemplateCode json.RawMessage            `json:"template_code,omitempty" swaggertype:"object"`
}

var difficultyLabels = map[string]bool{
	"easy": true, "medium": true, "hard": true,
	"fácil": true, "facil": true,
	"médio": true, "medio": true,
	"difícil": true, "dificil": true,
}

func (r *CreateChallengeRequest) validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return util.NewValidation("Título é obrigatório", "title")
	}
	if !progression.Category(r.Category).Valid() {
		return util.NewValidation(fmt.Sprintf("Categoria inválida: %q", r.Category), "category")
	}
	if !difficultyLabels[strings.ToLower(strings.TrimSpace(r.Difficulty.Level))] {
		return util.NewValidation(fmt.Sprintf("Dificuldade inválida: %q", r.Difficulty.Level), "difficulty.level")
	}
	if r.Difficulty.TimeLimit < 0 {
		return util.NewValidation("time_limit não pode ser negativo", "difficulty.time_limit")
	}
	if !r.Description.Type.Valid() {
		return util.NewValidation(fmt.Sprintf("Tipo de desafio inválido: %q", r.Description.Type), "description.type")
	}

	seen := make(map[string]bool, len(r.Description.AffectedSkills))
	for _, skill := range r.Description.AffectedSkills {
		if strings.TrimSpace(skill) == "" {
			return util.NewValidation("affected_skills não pode conter nomes vazios", "description.affected_skills")
		}
		if seen[skill] {
			return util.NewValidation(fmt.Sprintf("Skill duplicada: %q", skill), "description.affected_skills")
		}
		seen[skill] = true
	}
	if len(r.Description.AffectedSkills) == 0 && strings.TrimSpace(r.Description.TargetSkill) == "" {
		return util.NewValidation("Informe affected_skills ou target_skill", "description.affected_skills")
	}
	return nil
}

func (s *ChallengeService) Create(ctx context.Context, profileID string, req CreateChallengeRequest) (*model.Challenge, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	description, err := model.ToJSON(req.Description)
	if err != nil {
		return nil, util.NewValidation("description inválida", "description")
	}
	difficulty, err := model.ToJSON(req.Difficulty)
	if err != nil {
		return nil, util.NewValidation("difficulty inválida", "difficulty")
	}
	challenge := &model.Challenge{
		ProfileID:   profileID,
		Title:       strings.TrimSpace(req.Title),
		Description: description,
		Difficulty:  difficulty,
		Category:    req.Category,
	}
	if req.FS != nil {
		if challenge.FS, err = model.ToJSON(req.FS); err != nil {
			return nil, util.NewValidation("fs inválido", "fs")
		}
	}
	if len(req.TemplateCode) > 0 && string(req.TemplateCode) != "null" {
		challenge.TemplateCode = append([]byte(nil), req.TemplateCode...)
	}

	if err := s.ChallengeRepo.Create(ctx, challenge); err != nil {
		return nil, util.NewProcessing("criar desafio", err)
	}
	s.invalidate(ctx, profileID)

	s.log.Info("Challenge created",
		zap.String("profile_id", profileID),
		zap.Uint("challenge_id", challenge.ID),
		zap.String("category", challenge.Category))
	return challenge, nil
}

// ListActive limit 为 0 时使用默认值，超出范围返回校验错误
func (s *ChallengeService) ListActive(ctx context.Context, profileID string, limit int) ([]model.Challenge, error) {
	if limit == 0 {
		limit = s.Cfg.DefaultActiveLimit
	}
	if limit < 1 || limit > s.Cfg.MaxActiveLimit {
		return nil, util.NewValidation(
			fmt.Sprintf("limit deve estar entre 1 e %d", s.Cfg.MaxActiveLimit), "limit")
	}

	// 缓存按最大数量存一份，读取时截断
	challenges, ok := s.readCache(ctx, profileID)
	if !ok {
		var err error
		challenges, err = s.ChallengeRepo.ListRecent(ctx, profileID, s.Cfg.MaxActiveLimit)
		if err != nil {
			return nil, util.NewProcessing("listar desafios", err)
		}
		s.writeCache(ctx, profileID, challenges)
	}

	if challenges == nil {
		challenges = []model.Challenge{}
	}
	if len(challenges) > limit {
		challenges = challenges[:limit]
	}
	return challenges, nil
}

func (s *ChallengeService) Get(ctx context.Context, profileID string, id uint) (*model.Challenge, error) {
	challenge, err := s.ChallengeRepo.FindForProfile(ctx, profileID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.NewNotFound("Desafio", id)
	}
	if err != nil {
		return nil, util.NewProcessing("buscar desafio", err)
	}
	return challenge, nil
}

func activeChallengesKey(profileID string) string {
	return activeChallengesKeyPrefix + profileID
}

// readCache 缓存故障按未命中处理
func (s *ChallengeService) readCache(ctx context.Context, profileID string) ([]model.Challenge, bool) {
	if s.Redis == nil {
		return nil, false
	}
	val, err := s.Redis.Get(ctx, activeChallengesKey(profileID)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		s.log.Warn("Failed to read challenge cache", zap.String("profile_id", profileID), zap.Error(err))
		return nil, false
	}

	var challenges []model.Challenge
	if err := json.Unmarshal(val, &challenges); err != nil {
		s.log.Warn("Corrupted challenge cache entry", zap.String("profile_id", profileID), zap.Error(err))
		return nil, false
	}
	return challenges, true
}

func (s *ChallengeService) writeCache(ctx context.Context, profileID string, challenges []model.Challenge) {
	if s.Redis == nil {
		return
	}
	val, err := json.Marshal(challenges)
	if err != nil {
		return
	}
	if err := s.Redis.Set(ctx, activeChallengesKey(profileID), val, s.CacheTTL).Err(); err != nil {
		s.log.Warn("Failed to write challenge cache", zap.String("profile_id", profileID), zap.Error(err))
	}
}

func (s *ChallengeService) invalidate(ctx context.Context, profileID string) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Del(ctx, activeChallengesKey(profileID)).Err(); err != nil {
		s.log.Warn("Failed to invalidate challenge cache", zap.String("profile_id", profileID), zap.Error(err))
	}
}

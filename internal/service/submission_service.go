package service

import (
	"context"
	"errors"
	"praxis_backend/internal/model"
	"praxis_backend/internal/progression"
	"praxis_backend/internal/repository"
	"praxis_backend/internal/util"
	"praxis_backend/pkg/monitoring"
	"praxis_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SubmissionService 提交、AI 评审与技能更新的完整流程
type SubmissionService struct {
	ChallengeRepo  *repository.ChallengeRepository
	SubmissionRepo *repository.SubmissionRepository
	SkillsRepo     progression.SkillsRepository
	Evaluator      Evaluator
	Progression    *progression.Orchestrator
	log            *zap.Logger
}

func NewSubmissionService(
	challengeRepo *repository.ChallengeRepository,
	submissionRepo *repository.SubmissionRepository,
	skillsRepo progression.SkillsRepository,
	evaluator Evaluator,
	orchestrator *progression.Orchestrator,
	log *zap.Logger,
) *SubmissionService {
	if log == nil {
		log = zap.NewNop()
	}
	return &SubmissionService{
		ChallengeRepo:  challengeRepo,
		SubmissionRepo: submissionRepo,
		SkillsRepo:     skillsRepo,
		Evaluator:      evaluator,
		Progression:    orchestrator,
		log:            log,
	}
}

type CreateSubmissionRequest struct {
	// ProfileID 仅为兼容旧客户端，身份以 token 为准
	ProfileID     string              `json:"profile_id,omitempty"`
	ChallengeID   uint                `json:"challenge_id" binding:"required"`
	SubmittedCode model.SubmittedCode `json:"submitted_code"`
	CommitMessage string              `json:"commit_message,omitempty"`
	Notes         string              `json:"notes,omitempty"`
	TimeTakenSec  *int                `json:"time_taken_sec,omitempty" binding:"omitempty,min=0"`
}

type SubmissionResult struct {
	SubmissionID      uint                   `json:"submission_id"`
	Status            model.SubmissionStatus `json:"status"`
	Score             int                    `json:"score"`
	Metrics           map[string]int         `json:"metrics"`
	Feedback          string                 `json:"feedback"`
	SkillsProgression *progression.Result    `json:"skills_progression"`

	// 兼容旧前端
	TargetSkill       *string `json:"target_skill"`
	DeltaApplied      *int    `json:"delta_applied"`
	UpdatedSkillValue *int    `json:"updated_skill_value"`
}

// CreateAndScore 创建提交并同步完成评审。
// 评审失败时提交标记为 error；技能更新失败只记录日志，不影响评审结果
func (s *SubmissionService) CreateAndScore(ctx context.Context, profileID string, req CreateSubmissionRequest) (result *SubmissionResult, err error) {
	ctx, span := tracing.StartSpan(ctx, "SubmissionService.CreateAndScore",
		attribute.String("profile_id", profileID),
		attribute.Int64("challenge_id", int64(req.ChallengeID)))
	defer func() { tracing.EndSpan(span, err) }()

	log := s.log.With(zap.String("profile_id", profileID), zap.Uint("challenge_id", req.ChallengeID))

	challenge, err := s.ChallengeRepo.FindForProfile(ctx, profileID, req.ChallengeID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.NewNotFound("Desafio", req.ChallengeID)
	}
	if err != nil {
		return nil, util.NewProcessing("buscar desafio", err)
	}
	desc, err := challenge.ParsedDescription()
	if err != nil {
		return nil, util.NewProcessing("ler desafio", err)
	}
	if req.SubmittedCode.Type == "" {
		req.SubmittedCode.Type = desc.Type
	}

	attempts, err := s.SubmissionRepo.CountAttempts(ctx, profileID, challenge.ID)
	if err != nil {
		return nil, util.NewProcessing("contar tentativas", err)
	}
	attempt := attempts + 1

	code, err := model.ToJSON(req.SubmittedCode)
	if err != nil {
		return nil, util.NewValidation("submitted_code inválido", "submitted_code")
	}
	submission := &model.Submission{
		ProfileID:     profileID,
		ChallengeID:   challenge.ID,
		SubmittedCode: code,
		Status:        model.StatusSent,
		AttemptNumber: attempt,
		CommitMessage: req.CommitMessage,
		Notes:         req.Notes,
		TimeTakenSec:  req.TimeTakenSec,
	}
	if err := s.SubmissionRepo.Create(ctx, submission); err != nil {
		return nil, util.NewProcessing("criar submissão", err)
	}
	log = log.With(zap.Uint("submission_id", submission.ID), zap.Int("attempt", attempt))
	log.Info("Submission created")

	if err := s.SubmissionRepo.UpdateStatus(ctx, submission.ID, model.StatusEvaluating); err != nil {
		return nil, util.NewProcessing("atualizar status", err)
	}

	eval, err := s.evaluate(ctx, challenge, req.SubmittedCode, progression.Category(challenge.Category).SkillKind())
	if err != nil {
		monitoring.Evaluations.WithLabelValues("error").Inc()
		log.Error("AI evaluation failed", zap.Error(err))
		if statusErr := s.SubmissionRepo.UpdateStatus(ctx, submission.ID, model.StatusError); statusErr != nil {
			log.Error("Failed to mark submission as error", zap.Error(statusErr))
		}
		return nil, util.NewAIEvaluation(err).With("submission_id", submission.ID)
	}
	monitoring.Evaluations.WithLabelValues("scored").Inc()
	log.Info("Submission evaluated", zap.Int("score", eval.Score))

	if err := s.saveFeedback(ctx, submission.ID, eval); err != nil {
		return nil, util.NewProcessing("salvar feedback", err)
	}

	progress := s.progress(ctx, log, profileID, challenge, desc, eval, attempt)

	if err := s.SubmissionRepo.UpdateStatus(ctx, submission.ID, model.StatusScored); err != nil {
		return nil, util.NewProcessing("atualizar status", err)
	}

	result = &SubmissionResult{
		SubmissionID:      submission.ID,
		Status:            model.StatusScored,
		Score:             eval.Score,
		Metrics:           eval.Metrics,
		Feedback:          eval.Feedback,
		SkillsProgression: progress,
	}
	if progress != nil && len(progress.SkillsUpdated) > 0 {
		result.TargetSkill = &progress.TargetSkill
		result.DeltaApplied = &progress.DeltaApplied
		result.UpdatedSkillValue = &progress.UpdatedSkillValue
	}

	log.Info("Submission scored", zap.Int("score", eval.Score))
	return result, nil
}

func (s *SubmissionService) evaluate(ctx context.Context, ch *model.Challenge, code model.SubmittedCode, kind progression.SkillKind) (eval *Evaluation, err error) {
	ctx, span := tracing.StartSpan(ctx, "Evaluator.Evaluate")
	defer func() { tracing.EndSpan(span, err) }()

	req := EvaluationRequest{Challenge: ch, Submission: code}
	if s.SkillsRepo != nil {
		// 当前技能值只用于提示词，读取失败不影响评审
		if skills, err := s.SkillsRepo.GetSkills(ctx, ch.ProfileID, kind); err == nil {
			req.CurrentSkills = skills
		}
	}
	return s.Evaluator.Evaluate(ctx, req)
}

func (s *SubmissionService) saveFeedback(ctx context.Context, submissionID uint, eval *Evaluation) error {
	metrics, err := model.ToJSON(eval.Metrics)
	if err != nil {
		return err
	}
	score := eval.Score
	return s.SubmissionRepo.SaveFeedback(ctx, &model.SubmissionFeedback{
		SubmissionID:  submissionID,
		Feedback:      eval.Feedback,
		Summary:       eval.Summary(),
		Score:         &score,
		Metrics:       metrics,
		RawAIResponse: datatypes.JSON(eval.Raw),
	})
}

// progress 任何失败都只记录日志，返回 nil
func (s *SubmissionService) progress(
	ctx context.Context,
	log *zap.Logger,
	profileID string,
	ch *model.Challenge,
	desc model.ChallengeDescription,
	eval *Evaluation,
	attempt int,
) *progression.Result {
	ctx, span := tracing.StartSpan(ctx, "Orchestrator.Progress")
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	contract, err := ch.SkillContract()
	if err != nil {
		log.Error("Invalid challenge skill contract", zap.Error(err))
		return nil
	}

	legacy := eval.LegacyAssessment
	if legacy == nil && desc.TargetSkill != "" {
		if entry, ok := eval.SkillsAssessment[desc.TargetSkill]; ok {
			legacy = &entry
		}
	}

	result, err := s.Progression.Progress(ctx, progression.ProgressInput{
		ProfileID:        profileID,
		AffectedSkills:   contract.AffectedSkills,
		TargetSkill:      desc.TargetSkill,
		Category:         contract.Category,
		Difficulty:       contract.Difficulty,
		SkillsAssessment: eval.SkillsAssessment,
		LegacyAssessment: legacy,
		OverallScore:     eval.Score,
		AttemptNumber:    attempt,
	})
	switch {
	case errors.Is(err, progression.ErrNoAssessment):
		log.Info("No skill assessment to apply")
		err = nil
		return nil
	case errors.Is(err, progression.ErrSkillsNotFound):
		log.Warn("Skill progression skipped, profile has no skills", zap.Error(err))
		return nil
	case err != nil:
		log.Error("Skill progression failed", zap.Error(err))
		return nil
	}

	log.Info("Skill progression applied",
		zap.Strings("skills_updated", result.SkillsUpdated),
		zap.Any("deltas", result.Deltas))
	return result
}

// GetResult 查询已评审的提交
func (s *SubmissionService) GetResult(ctx context.Context, profileID string, submissionID uint) (*model.Submission, *model.SubmissionFeedback, error) {
	submission, err := s.SubmissionRepo.FindByID(ctx, submissionID)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && submission.ProfileID != profileID) {
		return nil, nil, util.NewNotFound("Submissão", submissionID)
	}
	if err != nil {
		return nil, nil, util.NewProcessing("buscar submissão", err)
	}

	feedback, err := s.SubmissionRepo.FindFeedback(ctx, submissionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return submission, nil, nil
	}
	if err != nil {
		return nil, nil, util.NewProcessing("buscar feedback", err)
	}
	return submission, feedback, nil
}

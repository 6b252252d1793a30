package service

import (
	"context"
	"errors"
	"praxis_backend/internal/model"
	"praxis_backend/internal/progression"
	"praxis_backend/internal/repository"
	"sort"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AuditService 离线检查 AI 评估的技能与挑战声明、用户技能表是否一致
type AuditService struct {
	SubmissionRepo *repository.SubmissionRepository
	ChallengeRepo  *repository.ChallengeRepository
	AttributesRepo *repository.AttributesRepository
	log            *zap.Logger
}

func NewAuditService(
	submissionRepo *repository.SubmissionRepository,
	challengeRepo *repository.ChallengeRepository,
	attributesRepo *repository.AttributesRepository,
	log *zap.Logger,
) *AuditService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuditService{
		SubmissionRepo: submissionRepo,
		ChallengeRepo:  challengeRepo,
		AttributesRepo: attributesRepo,
		log:            log,
	}
}

type SkillMismatch struct {
	SubmissionID   uint     `json:"submission_id"`
	ChallengeID    uint     `json:"challenge_id"`
	ChallengeTitle string   `json:"challenge_title"`
	Category       string   `json:"category"`
	ProfileID      string   `json:"profile_id"`
	Expected       []string `json:"expected"`
	Assessed       []string `json:"assessed"`
	NotDeclared    []string `json:"not_declared"`
	NotAssessed    []string `json:"not_assessed"`
	NotOwned       []string `json:"not_owned"`
	UserTechSkills int      `json:"user_tech_skills"`
	UserSoftSkills int      `json:"user_soft_skills"`
}

type AuditReport struct {
	Analyzed       int             `json:"analyzed"`
	WithIssues     int             `json:"with_issues"`
	ExtraSkills    int             `json:"extra_skills"`
	MissingSkills  int             `json:"missing_skills"`
	NotOwnedSkills int             `json:"not_owned_skills"`
	Mismatches     []SkillMismatch `json:"mismatches"`
}

// SkillMismatches 只分析已评分且有原始 AI 响应的提交；
// 缺少挑战或用户技能表的提交跳过
func (s *AuditService) SkillMismatches(ctx context.Context) (*AuditReport, error) {
	rows, err := s.SubmissionRepo.ListWithFeedback(ctx, 0)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.Submission.ChallengeID)
	}
	challenges, err := s.ChallengeRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	report := &AuditReport{Mismatches: []SkillMismatch{}}
	attrsCache := map[string]*model.Attributes{}

	for _, row := range rows {
		sub := row.Submission
		if sub.Status != model.StatusScored {
			continue
		}
		report.Analyzed++

		if isEmptyJSON([]byte(row.Feedback.RawAIResponse)) {
			continue
		}
		challenge, ok := challenges[sub.ChallengeID]
		if !ok {
			continue
		}
		attrs, err := s.attributes(ctx, attrsCache, sub.ProfileID)
		if err != nil {
			return nil, err
		}
		if attrs == nil {
			continue
		}

		mismatch, ok := s.check(sub, challenge, attrs, row.Feedback.RawAIResponse)
		if !ok {
			continue
		}
		report.WithIssues++
		report.ExtraSkills += len(mismatch.NotDeclared)
		report.MissingSkills += len(mismatch.NotAssessed)
		report.NotOwnedSkills += len(mismatch.NotOwned)
		report.Mismatches = append(report.Mismatches, mismatch)
	}

	s.log.Info("Skill audit finished",
		zap.Int("analyzed", report.Analyzed),
		zap.Int("with_issues", report.WithIssues))
	return report, nil
}

func (s *AuditService) attributes(ctx context.Context, cache map[string]*model.Attributes, profileID string) (*model.Attributes, error) {
	if attrs, ok := cache[profileID]; ok {
		return attrs, nil
	}
	attrs, err := s.AttributesRepo.FindByUserID(ctx, profileID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		attrs, err = nil, nil
	}
	if err != nil {
		return nil, err
	}
	cache[profileID] = attrs
	return attrs, nil
}

func (s *AuditService) check(sub model.Submission, ch *model.Challenge, attrs *model.Attributes, raw []byte) (SkillMismatch, bool) {
	desc, err := ch.ParsedDescription()
	if err != nil {
		s.log.Warn("Skipping challenge with invalid description",
			zap.Uint("challenge_id", ch.ID), zap.Error(err))
		return SkillMismatch{}, false
	}

	assessed := map[string]bool{}
	eval, err := ParseEvaluation(raw)
	if err != nil {
		s.log.Warn("Skipping unreadable AI response",
			zap.Uint("submission_id", sub.ID), zap.Error(err))
		return SkillMismatch{}, false
	}
	for label := range eval.SkillsAssessment {
		assessed[label] = true
	}
	if len(assessed) == 0 && eval.LegacyAssessment != nil && desc.TargetSkill != "" {
		assessed[desc.TargetSkill] = true
	}

	expected := map[string]bool{}
	for _, label := range desc.DeclaredSkills() {
		expected[label] = true
	}

	tech, _, _ := attrs.Skills(progression.TechSkills)
	soft, _, _ := attrs.Skills(progression.SoftSkills)

	m := SkillMismatch{
		SubmissionID:   sub.ID,
		ChallengeID:    ch.ID,
		ChallengeTitle: ch.Title,
		Category:       ch.Category,
		ProfileID:      sub.ProfileID,
		Expected:       sortedKeys(expected),
		Assessed:       sortedKeys(assessed),
		UserTechSkills: len(tech),
		UserSoftSkills: len(soft),
	}
	for _, label := range m.Assessed {
		if !expected[label] {
			m.NotDeclared = append(m.NotDeclared, label)
		}
		_, inTech := tech[label]
		_, inSoft := soft[label]
		if !inTech && !inSoft {
			m.NotOwned = append(m.NotOwned, label)
		}
	}
	for _, label := range m.Expected {
		if !assessed[label] {
			m.NotAssessed = append(m.NotAssessed, label)
		}
	}

	hasIssues := len(m.NotDeclared) > 0 || len(m.NotAssessed) > 0 || len(m.NotOwned) > 0
	return m, hasIssues
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

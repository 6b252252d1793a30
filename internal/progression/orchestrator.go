package progression

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// ErrNoAssessment 评估结果里既没有多技能评估也没有旧版单技能评估
var ErrNoAssessment = errors.New("no skill assessment to apply")

// Observer 接收技能更新过程中的事件，用于监控指标
type Observer interface {
	ContractViolation(kind SkillKind)
	ResolutionFailure(kind SkillKind)
	SkillDelta(kind SkillKind, delta int)
}

type nopObserver struct{}

func (nopObserver) ContractViolation(SkillKind) {}
func (nopObserver) ResolutionFailure(SkillKind) {}
func (nopObserver) SkillDelta(SkillKind, int) {}

type Orchestrator struct {
	repo     SkillsRepository
	log      *zap.Logger
	observer Observer
}

type Option func(*Orchestrator)

func WithObserver(o Observer) Option {
	return func(orc *Orchestrator) {
		if o != nil {
			orc.observer = o
		}
	}
}

func NewOrchestrator(repo SkillsRepository, log *zap.Logger, opts ...Option) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	o := &Orchestrator{repo: repo, log: log, observer: nopObserver{}}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type ApplyInput struct {
	ProfileID     string
	Contract      ChallengeSkillContract
	Assessment    map[string]AssessmentEntry
	OverallScore  int
	AttemptNumber int
}

// Apply 对一次提交涉及的所有技能计算并写回变化值。
// 不在 affected_skills 中的评估会被丢弃，无法映射的技能会被跳过，
// 映射到同一技能的多个评估只取第一个。
func (o *Orchestrator) Apply(ctx context.Context, in ApplyInput) (*Result, error) {
	kind := in.Contract.Category.SkillKind()
	soft := kind == SoftSkills
	log := o.log.With(zap.String("profile_id", in.ProfileID), zap.String("skill_type", string(kind)))

	current, err := o.repo.GetSkills(ctx, in.ProfileID, kind)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", kind, err)
	}

	result := &Result{
		SkillsUpdated: []string{},
		Deltas:        map[string]int{},
		NewValues:     map[string]int{},
		SkillType:     kind,
	}

	// 先校验契约：AI 评估了挑战没有声明的技能，直接丢弃
	for _, label := range assessmentLabels(in.Assessment) {
		if !in.Contract.allows(label) {
			log.Warn("assessed skill not declared by challenge, dropped",
				zap.String("skill", label),
				zap.Strings("affected_skills", in.Contract.AffectedSkills))
			o.observer.ContractViolation(kind)
			result.Dropped = append(result.Dropped, label)
		}
	}

	updated := current.Clone()
	seen := make(map[string]bool)

	for _, label := range in.Contract.AffectedSkills {
		entry, ok := in.Assessment[label]
		if !ok {
			continue
		}

		name, ok := ResolveSkillName(label, current, soft)
		if !ok {
			log.Warn("assessed skill does not match any user skill, skipped",
				zap.String("skill", label),
				zap.Strings("user_skills", current.Keys()))
			o.observer.ResolutionFailure(kind)
			result.Unresolved = append(result.Unresolved, label)
			continue
		}
		if seen[name] {
			log.Debug("skill already processed in this submission",
				zap.String("skill", label), zap.String("resolved", name))
			continue
		}
		seen[name] = true

		before := current[name]
		delta := CalculateDelta(DeltaInput{
			CurrentLevel:  before,
			OverallScore:  in.OverallScore,
			Assessment:    entry,
			Difficulty:    in.Contract.Difficulty,
			AttemptNumber: in.AttemptNumber,
		})
		after := Clamp(before+delta, 0, 100)
		updated[name] = after

		result.SkillsUpdated = append(result.SkillsUpdated, name)
		result.Deltas[name] = delta
		result.NewValues[name] = after
		o.observer.SkillDelta(kind, delta)

		log.Info("skill progression computed",
			zap.String("skill", name),
			zap.String("assessed_as", label),
			zap.Int("before", before),
			zap.Int("delta", delta),
			zap.Int("after", after))
	}

	if len(result.SkillsUpdated) == 0 {
		return result, nil
	}

	if err := o.repo.UpdateSkills(ctx, in.ProfileID, kind, updated); err != nil {
		return nil, fmt.Errorf("update %s: %w", kind, err)
	}

	first := result.SkillsUpdated[0]
	result.TargetSkill = first
	result.DeltaApplied = result.Deltas[first]
	result.UpdatedSkillValue = result.NewValues[first]

	return result, nil
}

type LegacyInput struct {
	ProfileID     string
	TargetSkill   string
	Category      Category
	Difficulty    Difficulty
	Assessment    AssessmentEntry
	OverallScore  int
	AttemptNumber int
}

// ApplyLegacy 旧版挑战只有 target_skill 和单个 skill_assessment
func (o *Orchestrator) ApplyLegacy(ctx context.Context, in LegacyInput) (*Result, error) {
	return o.Apply(ctx, ApplyInput{
		ProfileID: in.ProfileID,
		Contract: ChallengeSkillContract{
			AffectedSkills: []string{in.TargetSkill},
			Category:       in.Category,
			Difficulty:     in.Difficulty,
		},
		Assessment:    map[string]AssessmentEntry{in.TargetSkill: in.Assessment},
		OverallScore:  in.OverallScore,
		AttemptNumber: in.AttemptNumber,
	})
}

// ProgressInput 一次评分后的全部上下文，由 Progress 选择多技能或旧版路径
type ProgressInput struct {
	ProfileID        string
	AffectedSkills   []string
	TargetSkill      string
	Category         Category
	Difficulty       Difficulty
	SkillsAssessment map[string]AssessmentEntry
	LegacyAssessment *AssessmentEntry
	OverallScore     int
	AttemptNumber    int
}

func (o *Orchestrator) Progress(ctx context.Context, in ProgressInput) (*Result, error) {
	if len(in.AffectedSkills) > 0 && len(in.SkillsAssessment) > 0 {
		return o.Apply(ctx, ApplyInput{
			ProfileID: in.ProfileID,
			Contract: ChallengeSkillContract{
				AffectedSkills: in.AffectedSkills,
				Category:       in.Category,
				Difficulty:     in.Difficulty,
			},
			Assessment:    in.SkillsAssessment,
			OverallScore:  in.OverallScore,
			AttemptNumber: in.AttemptNumber,
		})
	}

	if in.TargetSkill != "" && in.LegacyAssessment != nil {
		return o.ApplyLegacy(ctx, LegacyInput{
			ProfileID:     in.ProfileID,
			TargetSkill:   in.TargetSkill,
			Category:      in.Category,
			Difficulty:    in.Difficulty,
			Assessment:    *in.LegacyAssessment,
			OverallScore:  in.OverallScore,
			AttemptNumber: in.AttemptNumber,
		})
	}

	return nil, ErrNoAssessment
}

func assessmentLabels(m map[string]AssessmentEntry) []string {
	labels := make([]string, 0, len(m))
	for k := range m {
		labels = append(labels, k)
	}
	sort.Strings(labels)
	return labels
}

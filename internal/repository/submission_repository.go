package repository

import (
	"context"
	"praxis_backend/internal/model"

	"gorm.io/gorm"
)

type SubmissionRepository struct {
	DB *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{DB: db}
}

func (r *SubmissionRepository) Create(ctx context.Context, submission *model.Submission) error {
	return r.DB.WithContext(ctx).Create(submission).Error
}

func (r *SubmissionRepository) FindByID(ctx context.Context, id uint) (*model.Submission, error) {
	var submission model.Submission
	if err := r.DB.WithContext(ctx).First(&submission, id).Error; err != nil {
		return nil, err
	}
	return &submission, nil
}

func (r *SubmissionRepository) UpdateStatus(ctx context.Context, id uint, status model.SubmissionStatus) error {
	return r.DB.WithContext(ctx).Model(&model.Submission{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// CountAttempts 同一用户对同一挑战已有的提交数
func (r *SubmissionRepository) CountAttempts(ctx context.Context, profileID string, challengeID uint) (int, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Submission{}).
		Where("profile_id = ? AND challenge_id = ?", profileID, challengeID).
		Count(&count).Error
	return int(count), err
}

func (r *SubmissionRepository) SaveFeedback(ctx context.Context, feedback *model.SubmissionFeedback) error {
	return r.DB.WithContext(ctx).Create(feedback).Error
}

func (r *SubmissionRepository) FindFeedback(ctx context.Context, submissionID uint) (*model.SubmissionFeedback, error) {
	var feedback model.SubmissionFeedback
	if err := r.DB.WithContext(ctx).Where("submission_id = ?", submissionID).First(&feedback).Error; err != nil {
		return nil, err
	}
	return &feedback, nil
}

type SubmissionWithFeedback struct {
	Submission model.Submission
	Feedback   model.SubmissionFeedback
}

// ListWithFeedback 按提交时间顺序返回已有 AI 反馈的提交
func (r *SubmissionRepository) ListWithFeedback(ctx context.Context, limit int) ([]SubmissionWithFeedback, error) {
	var submissions []model.Submission
	q := r.DB.WithContext(ctx).
		Where("id IN (?)", r.DB.Model(&model.SubmissionFeedback{}).Select("submission_id")).
		Order("submitted_at ASC").
		Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&submissions).Error; err != nil {
		return nil, err
	}
	if len(submissions) == 0 {
		return nil, nil
	}

	ids := make([]uint, len(submissions))
	for i, s := range submissions {
		ids[i] = s.ID
	}
	var feedbacks []model.SubmissionFeedback
	if err := r.DB.WithContext(ctx).Where("submission_id IN ?", ids).Find(&feedbacks).Error; err != nil {
		return nil, err
	}
	bySubmission := make(map[uint]model.SubmissionFeedback, len(feedbacks))
	for _, f := range feedbacks {
		bySubmission[f.SubmissionID] = f
	}

	out := make([]SubmissionWithFeedback, 0, len(submissions))
	for _, s := range submissions {
		out = append(out, SubmissionWithFeedback{Submission: s, Feedback: bySubmission[s.ID]})
	}
	return out, nil
}

package repository

import (
	"context"
	"praxis_backend/internal/model"

	"gorm.io/gorm"
)

type ChallengeRepository struct {
	DB *gorm.DB
}

func NewChallengeRepository(db *gorm.DB) *ChallengeRepository {
	return &ChallengeRepository{DB: db}
}

func (r *ChallengeRepository) Create(ctx context.Context, challenge *model.Challenge) error {
	return r.DB.WithContext(ctx).Create(challenge).Error
}

// FindForProfile 只返回属于该用户的挑战
func (r *ChallengeRepository) FindForProfile(ctx context.Context, profileID string, id uint) (*model.Challenge, error) {
	var challenge model.Challenge
	err := r.DB.WithContext(ctx).
		Where("id = ? AND profile_id = ?", id, profileID).
		First(&challenge).Error
	if err != nil {
		return nil, err
	}
	return &challenge, nil
}

// ListRecent 最新创建的在前
func (r *ChallengeRepository) ListRecent(ctx context.Context, profileID string, limit int) ([]model.Challenge, error) {
	var challenges []model.Challenge
	err := r.DB.WithContext(ctx).
		Where("profile_id = ?", profileID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&challenges).Error
	return challenges, err
}

func (r *ChallengeRepository) FindByIDs(ctx context.Context, ids []uint) (map[uint]*model.Challenge, error) {
	out := make(map[uint]*model.Challenge, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var challenges []model.Challenge
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&challenges).Error; err != nil {
		return nil, err
	}
	for i := range challenges {
		out[challenges[i].ID] = &challenges[i]
	}
	return out, nil
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"praxis_backend/internal/model"
	"praxis_backend/internal/progression"
	"time"

	"gorm.io/gorm"
)

// AttributesRepository 同时实现 progression.SkillsRepository
type AttributesRepository struct {
	DB *gorm.DB
}

var _ progression.SkillsRepository = (*AttributesRepository)(nil)

func NewAttributesRepository(db *gorm.DB) *AttributesRepository {
	return &AttributesRepository{DB: db}
}

func (r *AttributesRepository) FindByUserID(ctx context.Context, userID string) (*model.Attributes, error) {
	var attrs model.Attributes
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&attrs).Error; err != nil {
		return nil, err
	}
	return &attrs, nil
}

// Save 按 user_id 新增或覆盖
func (r *AttributesRepository) Save(ctx context.Context, attrs *model.Attributes) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if attrs.ID == 0 {
			var existing model.Attributes
			err := tx.Where("user_id = ?", attrs.UserID).First(&existing).Error
			switch {
			case err == nil:
				attrs.ID = existing.ID
			case !errors.Is(err, gorm.ErrRecordNotFound):
				return err
			}
		}
		return tx.Save(attrs).Error
	})
}

func (r *AttributesRepository) GetSkills(ctx context.Context, profileID string, kind progression.SkillKind) (progression.SkillMap, error) {
	attrs, err := r.FindByUserID(ctx, profileID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("profile %s has no attributes: %w", profileID, progression.ErrSkillsNotFound)
	}
	if err != nil {
		return nil, err
	}

	skills, ok, err := attrs.Skills(kind)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("profile %s has no %s: %w", profileID, kind, progression.ErrSkillsNotFound)
	}
	return skills, nil
}

// UpdateSkills 只写对应的技能列
func (r *AttributesRepository) UpdateSkills(ctx context.Context, profileID string, kind progression.SkillKind, skills progression.SkillMap) error {
	column, err := model.SkillColumn(kind)
	if err != nil {
		return err
	}
	raw, err := model.ToJSON(skills)
	if err != nil {
		return err
	}

	result := r.DB.WithContext(ctx).Model(&model.Attributes{}).
		Where("user_id = ?", profileID).
		Updates(map[string]interface{}{
			column:       raw,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("profile %s has no attributes: %w", profileID, progression.ErrSkillsNotFound)
	}
	return nil
}

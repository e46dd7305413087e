package repository

import (
	"flowgoals_backend/internal/model"

	"gorm.io/gorm"
)

// GoalRepository 处理目标的数据访问

type GoalRepository struct {
	DB *gorm.DB
}

func NewGoalRepository(db *gorm.DB) *GoalRepository {
	return &GoalRepository{DB: db}
}

func (r *GoalRepository) Create(goal *model.Goal) error {
	return r.DB.Create(goal).Error
}

func (r *GoalRepository) Update(goal *model.Goal) error {
	return r.DB.Save(goal).Error
}

func (r *GoalRepository) FindByID(id uint) (*model.Goal, error) {
	var goal model.Goal
	err := r.DB.First(&goal, id).Error
	return &goal, err
}

func (r *GoalRepository) FindByIDAndUserID(id, userID uint) (*model.Goal, error) {
	var goal model.Goal
	err := r.DB.Where("id = ? AND user_id = ?", id, userID).First(&goal).Error
	return &goal, err
}

func (r *GoalRepository) FindByUserID(userID uint) ([]model.Goal, error) {
	var goals []model.Goal
	err := r.DB.Where("user_id = ?", userID).Order("created_at DESC").Find(&goals).Error
	return goals, err
}

// FindActiveByUserID 每个用户同一时间至多一个活跃且未完成的目标
func (r *GoalRepository) FindActiveByUserID(userID uint) (*model.Goal, error) {
	var goal model.Goal
	err := r.DB.Where("user_id = ? AND is_active = ? AND is_completed = ?", userID, true, false).
		First(&goal).Error
	return &goal, err
}

// DeactivateByUserID 新目标创建前停用旧的活跃目标
func (r *GoalRepository) DeactivateByUserID(userID uint) error {
	return r.DB.Model(&model.Goal{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Update("is_active", false).Error
}

// Delete 删除目标并级联删除其任务
func (r *GoalRepository) Delete(id, userID uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&model.Goal{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("goal_id = ?", id).Delete(&model.Task{}).Error
	})
}

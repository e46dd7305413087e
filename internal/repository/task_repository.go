package repository

import (
	"time"

	"flowgoals_backend/internal/model"

	"gorm.io/gorm"
)

type TaskRepository struct {
	DB *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{DB: db}
}

func (r *TaskRepository) Create(task *model.Task) error {
	return r.DB.Create(task).Error
}

func (r *TaskRepository) CreateBatch(tasks []*model.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	return r.DB.Create(&tasks).Error
}

func (r *TaskRepository) FindByIDAndUserID(id, userID uint) (*model.Task, error) {
	var task model.Task
	err := r.DB.Where("id = ? AND user_id = ?", id, userID).First(&task).Error
	return &task, err
}

func (r *TaskRepository) FindByGoalID(goalID uint) ([]*model.Task, error) {
	var tasks []*model.Task
	err := r.DB.Where("goal_id = ?", goalID).Order("day_number ASC, id ASC").Find(&tasks).Error
	return tasks, err
}

func (r *TaskRepository) FindPendingByGoalID(goalID uint) ([]*model.Task, error) {
	var tasks []*model.Task
	err := r.DB.Where("goal_id = ? AND status = ?", goalID, model.TaskPending).
		Order("day_number ASC, id ASC").
		Find(&tasks).Error
	return tasks, err
}

// FirstPendingByGoalID 今日任务 = 最小 DayNumber 的待办任务
func (r *TaskRepository) FirstPendingByGoalID(goalID uint) (*model.Task, error) {
	var task model.Task
	err := r.DB.Where("goal_id = ? AND status = ?", goalID, model.TaskPending).
		Order("day_number ASC, id ASC").
		First(&task).Error
	return &task, err
}

// FindHistoryByGoalID 已完成或已跳过的任务，最近操作的在前
func (r *TaskRepository) FindHistoryByGoalID(goalID, userID uint) ([]*model.Task, error) {
	var tasks []*model.Task
	err := r.DB.Where("goal_id = ? AND user_id = ? AND status IN ?",
		goalID, userID, []model.TaskStatus{model.TaskCompleted, model.TaskSkipped}).
		Order("completed_at DESC, skipped_at DESC").
		Find(&tasks).Error
	return tasks, err
}

func (r *TaskRepository) CountByGoalID(goalID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Task{}).Where("goal_id = ?", goalID).Count(&count).Error
	return count, err
}

func (r *TaskRepository) CountByGoalIDAndStatus(goalID uint, status model.TaskStatus) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Task{}).
		Where("goal_id = ? AND status = ?", goalID, status).
		Count(&count).Error
	return count, err
}

func (r *TaskRepository) CountByUserIDAndStatus(userID uint, status model.TaskStatus) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Task{}).
		Where("user_id = ? AND status = ?", userID, status).
		Count(&count).Error
	return count, err
}

// MarkCompleted 条件更新：仅当任务仍为 pending 时写入终态。
// 返回 false 表示并发请求已经抢先处理过该任务。
func (r *TaskRepository) MarkCompleted(id uint, at time.Time) (bool, error) {
	result := r.DB.Model(&model.Task{}).
		Where("id = ? AND status = ?", id, model.TaskPending).
		Updates(map[string]interface{}{
			"status":       model.TaskCompleted,
			"completed_at": at,
		})
	return result.RowsAffected > 0, result.Error
}

// MarkSkipped 同 MarkCompleted，写入 skipped 终态
func (r *TaskRepository) MarkSkipped(id uint, at time.Time) (bool, error) {
	result := r.DB.Model(&model.Task{}).
		Where("id = ? AND status = ?", id, model.TaskPending).
		Updates(map[string]interface{}{
			"status":     model.TaskSkipped,
			"skipped_at": at,
		})
	return result.RowsAffected > 0, result.Error
}

func (r *TaskRepository) UpdateScheduledDate(id uint, at time.Time) error {
	return r.DB.Model(&model.Task{}).
		Where("id = ?", id).
		Update("scheduled_date", at).Error
}

func (r *TaskRepository) Update(task *model.Task) error {
	return r.DB.Save(task).Error
}

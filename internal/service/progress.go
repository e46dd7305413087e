package service

import (
	"math"

	"flowgoals_backend/internal/model"
)

// ProgressTracker 进度核算。百分比永远从任务表现算，
// 不落库，目标上的计数器漂移时读取端自动收敛。
type ProgressTracker struct {
	tasks TaskStore
}

func NewProgressTracker(tasks TaskStore) *ProgressTracker {
	return &ProgressTracker{tasks: tasks}
}

// Percent 完成任务数 / 任务总数，四舍五入为整数百分比
func (p *ProgressTracker) Percent(goalID uint) (int, error) {
	total, err := p.tasks.CountByGoalID(goalID)
	if err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, nil
	}
	completed, err := p.tasks.CountByGoalIDAndStatus(goalID, model.TaskCompleted)
	if err != nil {
		return 0, err
	}
	return int(math.Round(float64(completed) / float64(total) * 100)), nil
}

// Summary 带现算进度的目标概要
func (p *ProgressTracker) Summary(goal *model.Goal) (*model.GoalSummary, error) {
	percent, err := p.Percent(goal.ID)
	if err != nil {
		return nil, err
	}
	return &model.GoalSummary{
		ID:            goal.ID,
		Title:         goal.Title,
		Type:          goal.Type,
		Progress:      percent,
		CompletedDays: goal.CompletedDays,
		SkippedDays:   goal.SkippedDays,
		CurrentDay:    goal.CurrentDay,
		TotalDays:     goal.TotalDays,
		IsActive:      goal.IsActive,
		IsCompleted:   goal.IsCompleted,
	}, nil
}

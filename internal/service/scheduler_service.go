package service

import (
	"errors"
	"time"

	"flowgoals_backend/internal/model"
	"flowgoals_backend/internal/util"
	"flowgoals_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CompletionNotifier 任务完成后的旁路通知（动态流等），
// 实现方自行异步，失败不得影响完成路径。
type CompletionNotifier interface {
	TaskCompleted(userID uint, goal *model.Goal, task *model.Task, progressPercent int)
}

// SchedulerService 日任务调度核心。
// 规则：目标下 DayNumber 最小的 pending 任务即"今天的任务"，
// 完成/跳过都先用条件更新抢任务状态，抢不到说明已被并发请求处理。
type SchedulerService struct {
	tasks    TaskStore
	goals    GoalStore
	progress *ProgressTracker
	notifier CompletionNotifier
	now      func() time.Time
}

func NewSchedulerService(tasks TaskStore, goals GoalStore, notifier CompletionNotifier) *SchedulerService {
	return &SchedulerService{
		tasks:    tasks,
		goals:    goals,
		progress: NewProgressTracker(tasks),
		notifier: notifier,
		now:      time.Now,
	}
}

// TodayResult 今日视图：要么有任务，要么目标已全部完成
type TodayResult struct {
	AllCompleted bool               `json:"allCompleted"`
	Task         *model.Task        `json:"task,omitempty"`
	Goal         *model.GoalSummary `json:"goal"`
	Message      string             `json:"message,omitempty"`
}

const (
	messageAllCompleted = "You've completed your entire journey! Amazing work! 🎉"
	messageCompleted    = "Great work showing up today! Rest well. 🌟"
	messageSkipped      = "No worries! Life happens. Your task will be waiting when you're ready. Take care. 💙"
)

// TodayTaskForActiveGoal 当前激活目标的今日任务
func (s *SchedulerService) TodayTaskForActiveGoal(userID uint) (*TodayResult, error) {
	goal, err := s.goals.FindActiveByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrNoActiveGoal
		}
		return nil, err
	}
	return s.todayForGoal(goal)
}

// TodayTask 指定目标的今日任务
func (s *SchedulerService) TodayTask(userID, goalID uint) (*TodayResult, error) {
	goal, err := s.goals.FindByIDAndUserID(goalID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrGoalNotFound
		}
		return nil, err
	}
	return s.todayForGoal(goal)
}

func (s *SchedulerService) todayForGoal(goal *model.Goal) (*TodayResult, error) {
	task, err := s.tasks.FirstPendingByGoalID(goal.ID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		// 没有 pending 任务：补记完成标志（幂等）
		if !goal.IsCompleted {
			goal.IsCompleted = true
			goal.IsActive = false
			if err := s.goals.Update(goal); err != nil {
				return nil, err
			}
		}
		summary, err := s.progress.Summary(goal)
		if err != nil {
			return nil, err
		}
		return &TodayResult{AllCompleted: true, Goal: summary, Message: messageAllCompleted}, nil
	}

	// 旧记录缺资源时现场补全，只丰富返回值不回写
	if len(task.Resources) == 0 {
		task.Resources = GenerateResources(task.Title, goal.Title)
	}

	summary, err := s.progress.Summary(goal)
	if err != nil {
		return nil, err
	}
	return &TodayResult{Task: task, Goal: summary}, nil
}

// CompleteTask 标记任务完成并推进目标计数。
// 写顺序固定：先任务状态（条件更新），后目标计数，
// 中途崩溃只会少计一天，进度百分比现算不受影响。
func (s *SchedulerService) CompleteTask(userID, taskID uint) (*TodayResult, error) {
	task, err := s.tasks.FindByIDAndUserID(taskID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrTaskNotFound
		}
		return nil, err
	}
	if task.Status != model.TaskPending {
		return nil, util.ErrTaskNotPending
	}
	if !task.AllActionItemsCompleted() {
		return nil, util.ErrActionItemsIncomplete
	}

	now := s.now()
	won, err := s.tasks.MarkCompleted(task.ID, now)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, util.ErrTaskNotPending
	}
	task.Status = model.TaskCompleted
	task.CompletedAt = &now

	goal, err := s.goals.FindByID(task.GoalID)
	if err != nil {
		return nil, err
	}
	goal.CompletedDays++
	goal.CurrentDay++

	pending, err := s.tasks.CountByGoalIDAndStatus(goal.ID, model.TaskPending)
	if err != nil {
		return nil, err
	}
	if pending == 0 {
		goal.IsCompleted = true
		goal.IsActive = false
	}
	if err := s.goals.Update(goal); err != nil {
		return nil, err
	}

	summary, err := s.progress.Summary(goal)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.TaskCompleted(userID, goal, task, summary.Progress)
	}

	logger.Log.Info("task completed",
		zap.Uint("userId", userID),
		zap.Uint("taskId", task.ID),
		zap.Int("dayNumber", task.DayNumber),
		zap.Int("progress", summary.Progress))

	message := messageCompleted
	if goal.IsCompleted {
		message = messageAllCompleted
	}
	return &TodayResult{AllCompleted: goal.IsCompleted, Task: task, Goal: summary, Message: message}, nil
}

// SkipTask 跳过今日任务：已排期的 pending 任务整体顺延一天，
// 同一 DayNumber 的替补任务排到队尾，子项全部重置
func (s *SchedulerService) SkipTask(userID, taskID uint) (*TodayResult, error) {
	task, err := s.tasks.FindByIDAndUserID(taskID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrTaskNotFound
		}
		return nil, err
	}
	if task.Status != model.TaskPending {
		return nil, util.ErrTaskNotPending
	}

	now := s.now()
	won, err := s.tasks.MarkSkipped(task.ID, now)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, util.ErrTaskNotPending
	}
	task.Status = model.TaskSkipped
	task.SkippedAt = &now

	goal, err := s.goals.FindByID(task.GoalID)
	if err != nil {
		return nil, err
	}
	goal.SkippedDays++
	if err := s.goals.Update(goal); err != nil {
		return nil, err
	}

	pending, err := s.tasks.FindPendingByGoalID(goal.ID)
	if err != nil {
		return nil, err
	}
	for _, t := range pending {
		if t.ScheduledDate == nil {
			continue
		}
		shifted := t.ScheduledDate.Add(24 * time.Hour)
		t.ScheduledDate = &shifted
		if err := s.tasks.UpdateScheduledDate(t.ID, shifted); err != nil {
			return nil, err
		}
	}

	newDate := now.Add(24 * time.Hour)
	if len(pending) > 0 {
		if last := pending[len(pending)-1]; last.ScheduledDate != nil {
			newDate = last.ScheduledDate.Add(24 * time.Hour)
		}
	}

	replacement := &model.Task{
		GoalID:           task.GoalID,
		UserID:           task.UserID,
		DayNumber:        task.DayNumber,
		Title:            task.Title,
		Description:      task.Description,
		Phase:            task.Phase,
		SkillProgression: task.SkillProgression,
		EstimatedMinutes: task.EstimatedMinutes,
		Status:           model.TaskPending,
		ScheduledDate:    &newDate,
		ActionItems:      resetActionItems(task.ActionItems),
		Resources:        task.Resources,
	}
	if err := s.tasks.Create(replacement); err != nil {
		return nil, err
	}

	summary, err := s.progress.Summary(goal)
	if err != nil {
		return nil, err
	}

	logger.Log.Info("task skipped",
		zap.Uint("userId", userID),
		zap.Uint("taskId", task.ID),
		zap.Int("dayNumber", task.DayNumber),
		zap.Uint("replacementId", replacement.ID))

	return &TodayResult{Task: task, Goal: summary, Message: messageSkipped}, nil
}

func resetActionItems(items model.ActionItems) model.ActionItems {
	reset := make(model.ActionItems, 0, len(items))
	for _, item := range items {
		reset = append(reset, model.ActionItem{Text: item.Text, Completed: false})
	}
	return reset
}

// UpdateActionItem 勾选/取消单个子项，不触发任务状态变化
func (s *SchedulerService) UpdateActionItem(userID, taskID uint, index int, completed bool) (*model.Task, error) {
	task, err := s.tasks.FindByIDAndUserID(taskID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrTaskNotFound
		}
		return nil, err
	}
	if index < 0 || index >= len(task.ActionItems) {
		return nil, util.ErrActionItemIndex
	}
	task.ActionItems[index].Completed = completed
	if err := s.tasks.Update(task); err != nil {
		return nil, err
	}
	return task, nil
}

// AllTasks 目标的完整路线图，按 DayNumber 升序
func (s *SchedulerService) AllTasks(userID, goalID uint) ([]*model.Task, *model.GoalSummary, error) {
	goal, err := s.goals.FindByIDAndUserID(goalID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, util.ErrGoalNotFound
		}
		return nil, nil, err
	}
	tasks, err := s.tasks.FindByGoalID(goal.ID)
	if err != nil {
		return nil, nil, err
	}
	summary, err := s.progress.Summary(goal)
	if err != nil {
		return nil, nil, err
	}
	return tasks, summary, nil
}

// TaskHistory 已完成/已跳过的任务，按处理时间倒序
func (s *SchedulerService) TaskHistory(userID, goalID uint) ([]*model.Task, error) {
	if _, err := s.goals.FindByIDAndUserID(goalID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrGoalNotFound
		}
		return nil, err
	}
	return s.tasks.FindHistoryByGoalID(goalID, userID)
}

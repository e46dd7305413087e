package service

import (
	"errors"
	"time"

	"flowgoals_backend/internal/model"
	"flowgoals_backend/internal/util"

	"gorm.io/gorm"
)

// Planner 逐天计划生成，可在测试里替换为固定输出
type Planner interface {
	GeneratePlan(draft GoalDraft) []DayPlan
}

// GoalService 目标生命周期：创建时生成整段任务序列并停用旧目标
type GoalService struct {
	goals   GoalStore
	tasks   TaskStore
	planner Planner
	now     func() time.Time
}

func NewGoalService(goals GoalStore, tasks TaskStore, planner Planner) *GoalService {
	return &GoalService{goals: goals, tasks: tasks, planner: planner, now: time.Now}
}

// GoalWithProgress 列表项，Progress 现算
type GoalWithProgress struct {
	model.Goal
	Progress int `json:"progress"`
}

// CreateGoal 生成计划、停用旧的激活目标、落库目标和任务序列。
// 单用户同一时刻只有一个激活目标。
func (s *GoalService) CreateGoal(userID uint, draft GoalDraft) (*model.Goal, []*model.Task, error) {
	plan := s.planner.GeneratePlan(draft)

	if err := s.goals.DeactivateByUserID(userID); err != nil {
		return nil, nil, err
	}

	goal := &model.Goal{
		UserID:       userID,
		Type:         draft.Type,
		Title:        draft.Title,
		Description:  draft.Description,
		TotalDays:    draft.TotalDays,
		DailyMinutes: draft.DailyMinutes,
		CurrentDay:   1,
		IsActive:     true,
	}
	if err := s.goals.Create(goal); err != nil {
		return nil, nil, err
	}

	tasks := s.tasksFromPlan(goal, plan)
	if err := s.tasks.CreateBatch(tasks); err != nil {
		return nil, nil, err
	}
	return goal, tasks, nil
}

func (s *GoalService) tasksFromPlan(goal *model.Goal, plan []DayPlan) []*model.Task {
	startOfDay := s.now().Truncate(24 * time.Hour)
	tasks := make([]*model.Task, 0, len(plan))
	for _, day := range plan {
		scheduled := startOfDay.AddDate(0, 0, day.DayNumber-1)
		items := make(model.ActionItems, 0, len(day.ActionItems))
		for _, text := range day.ActionItems {
			items = append(items, model.ActionItem{Text: text})
		}
		tasks = append(tasks, &model.Task{
			GoalID:           goal.ID,
			UserID:           goal.UserID,
			DayNumber:        day.DayNumber,
			Title:            day.Title,
			Description:      day.Description,
			Phase:            day.Phase,
			SkillProgression: day.SkillProgression,
			EstimatedMinutes: day.EstimatedMinutes,
			Status:           model.TaskPending,
			ScheduledDate:    &scheduled,
			ActionItems:      items,
			Resources:        day.Resources,
		})
	}
	return tasks
}

// ListGoals 用户全部目标，带现算进度
func (s *GoalService) ListGoals(userID uint) ([]GoalWithProgress, error) {
	goals, err := s.goals.FindByUserID(userID)
	if err != nil {
		return nil, err
	}
	tracker := NewProgressTracker(s.tasks)
	result := make([]GoalWithProgress, 0, len(goals))
	for _, g := range goals {
		percent, err := tracker.Percent(g.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, GoalWithProgress{Goal: g, Progress: percent})
	}
	return result, nil
}

// ActiveGoal 当前激活目标概要
func (s *GoalService) ActiveGoal(userID uint) (*model.GoalSummary, error) {
	goal, err := s.goals.FindActiveByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrNoActiveGoal
		}
		return nil, err
	}
	return NewProgressTracker(s.tasks).Summary(goal)
}

// GetGoal 按 ID 取目标（含归属校验）
func (s *GoalService) GetGoal(userID, goalID uint) (*model.Goal, error) {
	goal, err := s.goals.FindByIDAndUserID(goalID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrGoalNotFound
		}
		return nil, err
	}
	return goal, nil
}

// DeleteGoal 删除目标及其全部任务
func (s *GoalService) DeleteGoal(userID, goalID uint) error {
	err := s.goals.Delete(goalID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrGoalNotFound
	}
	return err
}

package service

import (
	"errors"
	"testing"
	"time"

	"flowgoals_backend/internal/model"
	"flowgoals_backend/internal/util"
)

type stubPlanner struct{}

func (stubPlanner) GeneratePlan(draft GoalDraft) []DayPlan {
	plan := make([]DayPlan, 0, draft.TotalDays)
	for day := 1; day <= draft.TotalDays; day++ {
		plan = append(plan, DayPlan{
			DayNumber:        day,
			Title:            "Topic",
			EstimatedMinutes: draft.DailyMinutes,
			Phase:            "Phase 1: Foundation",
			ActionItems:      []string{"study"},
		})
	}
	return plan
}

func newTestGoalService() (*GoalService, *memGoalStore, *memTaskStore) {
	goals := newMemGoalStore()
	tasks := newMemTaskStore()
	s := NewGoalService(goals, tasks, stubPlanner{})
	s.now = func() time.Time { return time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC) }
	return s, goals, tasks
}

func TestCreateGoalSeedsTasks(t *testing.T) {
	s, _, tasks := newTestGoalService()

	goal, created, err := s.CreateGoal(1, GoalDraft{
		Type: model.GoalLearning, Title: "Learn Go", TotalDays: 7, DailyMinutes: 30,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !goal.IsActive || goal.CurrentDay != 1 {
		t.Fatalf("goal init wrong: %+v", goal)
	}
	if len(created) != 7 {
		t.Fatalf("seeded tasks = %d, want 7", len(created))
	}

	stored, _ := tasks.FindByGoalID(goal.ID)
	for i, task := range stored {
		if task.DayNumber != i+1 || task.Status != model.TaskPending {
			t.Fatalf("task %d = day %d status %s", i, task.DayNumber, task.Status)
		}
		if task.ScheduledDate == nil {
			t.Fatalf("task %d missing scheduled date", i)
		}
	}
	// 第 N 天排在第 1 天之后 N-1 天
	gap := stored[6].ScheduledDate.Sub(*stored[0].ScheduledDate)
	if gap != 6*24*time.Hour {
		t.Fatalf("schedule gap = %v", gap)
	}
}

func TestCreateGoalDeactivatesPrevious(t *testing.T) {
	s, goals, _ := newTestGoalService()

	first, _, err := s.CreateGoal(1, GoalDraft{Type: model.GoalLearning, Title: "First", TotalDays: 3, DailyMinutes: 30})
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	second, _, err := s.CreateGoal(1, GoalDraft{Type: model.GoalLearning, Title: "Second", TotalDays: 3, DailyMinutes: 30})
	if err != nil {
		t.Fatalf("second create: %v", err)
	}

	active, err := goals.FindActiveByUserID(1)
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if active.ID != second.ID {
		t.Fatalf("active goal = %d, want %d", active.ID, second.ID)
	}
	old, _ := goals.FindByID(first.ID)
	if old.IsActive {
		t.Fatal("previous goal must be deactivated")
	}
}

func TestActiveGoalNone(t *testing.T) {
	s, _, _ := newTestGoalService()
	if _, err := s.ActiveGoal(1); !errors.Is(err, util.ErrNoActiveGoal) {
		t.Fatalf("expected ErrNoActiveGoal, got %v", err)
	}
}

func TestListGoalsProgress(t *testing.T) {
	s, goals, tasks := newTestGoalService()
	goal, _, err := s.CreateGoal(1, GoalDraft{Type: model.GoalLearning, Title: "Learn Go", TotalDays: 4, DailyMinutes: 30})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	scheduler := NewSchedulerService(tasks, goals, nil)
	today, _ := scheduler.TodayTask(1, goal.ID)
	// 子项勾完才能完成
	if _, err := scheduler.UpdateActionItem(1, today.Task.ID, 0, true); err != nil {
		t.Fatalf("check item: %v", err)
	}
	if _, err := scheduler.CompleteTask(1, today.Task.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	list, err := s.ListGoals(1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Progress != 25 {
		t.Fatalf("list = %+v", list)
	}
}

func TestDeleteGoal(t *testing.T) {
	s, _, _ := newTestGoalService()
	goal, _, err := s.CreateGoal(1, GoalDraft{Type: model.GoalLearning, Title: "Learn Go", TotalDays: 2, DailyMinutes: 30})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.DeleteGoal(1, goal.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteGoal(1, goal.ID); !errors.Is(err, util.ErrGoalNotFound) {
		t.Fatalf("expected ErrGoalNotFound, got %v", err)
	}
	// 他人目标不可删除
	goal2, _, _ := s.CreateGoal(2, GoalDraft{Type: model.GoalLearning, Title: "Other", TotalDays: 2, DailyMinutes: 30})
	if err := s.DeleteGoal(1, goal2.ID); !errors.Is(err, util.ErrGoalNotFound) {
		t.Fatalf("expected ErrGoalNotFound for foreign goal, got %v", err)
	}
}

package service

import (
	"errors"
	"testing"
	"time"

	"flowgoals_backend/internal/model"
	"flowgoals_backend/internal/util"
)

type recordingNotifier struct {
	calls []int
}

func (n *recordingNotifier) TaskCompleted(userID uint, goal *model.Goal, task *model.Task, progressPercent int) {
	n.calls = append(n.calls, progressPercent)
}

func newTestScheduler() (*SchedulerService, *memTaskStore, *memGoalStore, *recordingNotifier) {
	tasks := newMemTaskStore()
	goals := newMemGoalStore()
	notifier := &recordingNotifier{}
	s := NewSchedulerService(tasks, goals, notifier)
	s.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return s, tasks, goals, notifier
}

func seedGoal(t *testing.T, goals *memGoalStore, tasks *memTaskStore, userID uint, totalDays int) *model.Goal {
	t.Helper()
	goal := &model.Goal{
		UserID:     userID,
		Type:       model.GoalLearning,
		Title:      "Learn Python",
		TotalDays:  totalDays,
		CurrentDay: 1,
		IsActive:   true,
	}
	if err := goals.Create(goal); err != nil {
		t.Fatalf("create goal: %v", err)
	}
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for day := 1; day <= totalDays; day++ {
		scheduled := start.AddDate(0, 0, day-1)
		task := &model.Task{
			GoalID:        goal.ID,
			UserID:        userID,
			DayNumber:     day,
			Title:         "Day topic",
			Status:        model.TaskPending,
			ScheduledDate: &scheduled,
			ActionItems:   model.ActionItems{{Text: "study", Completed: true}},
		}
		if err := tasks.Create(task); err != nil {
			t.Fatalf("create task: %v", err)
		}
	}
	return goal
}

func TestTodayTaskPicksLowestPendingDay(t *testing.T) {
	s, tasks, goals, _ := newTestScheduler()
	goal := seedGoal(t, goals, tasks, 1, 5)

	// 完成第1天后，今天应该是第2天
	if _, err := s.CompleteTask(1, 1); err != nil {
		t.Fatalf("complete: %v", err)
	}

	result, err := s.TodayTask(1, goal.ID)
	if err != nil {
		t.Fatalf("today: %v", err)
	}
	if result.AllCompleted {
		t.Fatal("expected a pending task")
	}
	if result.Task.DayNumber != 2 {
		t.Fatalf("expected day 2, got %d", result.Task.DayNumber)
	}
}

func TestTodayTaskNoActiveGoal(t *testing.T) {
	s, _, _, _ := newTestScheduler()
	if _, err := s.TodayTaskForActiveGoal(42); !errors.Is(err, util.ErrNoActiveGoal) {
		t.Fatalf("expected ErrNoActiveGoal, got %v", err)
	}
}

func TestTodayTaskEnrichesMissingResources(t *testing.T) {
	s, tasks, goals, _ := newTestScheduler()
	goal := seedGoal(t, goals, tasks, 1, 2)

	result, err := s.TodayTask(1, goal.ID)
	if err != nil {
		t.Fatalf("today: %v", err)
	}
	if len(result.Task.Resources) == 0 {
		t.Fatal("expected generated resources on task without any")
	}
	// 按需补全不落库
	stored, _ := tasks.FindByIDAndUserID(result.Task.ID, 1)
	if len(stored.Resources) != 0 {
		t.Fatal("resource enrichment must not be persisted")
	}
}

func TestCompleteTaskAccounting(t *testing.T) {
	s, tasks, goals, notifier := newTestScheduler()
	goal := seedGoal(t, goals, tasks, 1, 4)

	result, err := s.CompleteTask(1, 1)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}

	updated, _ := goals.FindByID(goal.ID)
	if updated.CompletedDays != 1 {
		t.Fatalf("completedDays = %d, want 1", updated.CompletedDays)
	}
	if updated.CurrentDay != 2 {
		t.Fatalf("currentDay = %d, want 2", updated.CurrentDay)
	}
	if updated.SkippedDays != 0 {
		t.Fatalf("skippedDays = %d, want 0", updated.SkippedDays)
	}
	// 1/4 完成 = 25%
	if result.Goal.Progress != 25 {
		t.Fatalf("progress = %d, want 25", result.Goal.Progress)
	}
	if result.Task.Status != model.TaskCompleted || result.Task.CompletedAt == nil {
		t.Fatal("task not marked completed")
	}
	if len(notifier.calls) != 1 || notifier.calls[0] != 25 {
		t.Fatalf("notifier calls = %v, want [25]", notifier.calls)
	}
}

func TestCompleteTaskRequiresActionItems(t *testing.T) {
	s, tasks, goals, _ := newTestScheduler()
	goal := seedGoal(t, goals, tasks, 1, 2)

	stored, _ := tasks.FindByIDAndUserID(1, 1)
	stored.ActionItems = model.ActionItems{
		{Text: "read", Completed: true},
		{Text: "practice", Completed: false},
	}
	if err := tasks.Update(stored); err != nil {
		t.Fatalf("update: %v", err)
	}

	if _, err := s.CompleteTask(1, 1); !errors.Is(err, util.ErrActionItemsIncomplete) {
		t.Fatalf("expected ErrActionItemsIncomplete, got %v", err)
	}
	// 被拒绝的完成不得改动任何计数
	after, _ := goals.FindByID(goal.ID)
	if after.CompletedDays != 0 || after.CurrentDay != 1 {
		t.Fatal("rejected completion must not touch goal counters")
	}
}

func TestCompleteTaskIdempotency(t *testing.T) {
	s, tasks, goals, _ := newTestScheduler()
	goal := seedGoal(t, goals, tasks, 1, 3)

	if _, err := s.CompleteTask(1, 1); err != nil {
		t.Fatalf("first complete: %v", err)
	}
	if _, err := s.CompleteTask(1, 1); !errors.Is(err, util.ErrTaskNotPending) {
		t.Fatalf("expected ErrTaskNotPending, got %v", err)
	}

	after, _ := goals.FindByID(goal.ID)
	if after.CompletedDays != 1 {
		t.Fatalf("completedDays = %d after duplicate complete, want 1", after.CompletedDays)
	}
}

func TestCompleteTaskOwnership(t *testing.T) {
	s, tasks, goals, _ := newTestScheduler()
	seedGoal(t, goals, tasks, 1, 2)

	if _, err := s.CompleteTask(99, 1); !errors.Is(err, util.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound for foreign user, got %v", err)
	}
}

func TestSkipTaskReschedules(t *testing.T) {
	s, tasks, goals, _ := newTestScheduler()
	goal := seedGoal(t, goals, tasks, 1, 3)

	before, _ := tasks.FindPendingByGoalID(goal.ID)
	day2Before := *before[1].ScheduledDate
	day3Before := *before[2].ScheduledDate

	result, err := s.SkipTask(1, 1)
	if err != nil {
		t.Fatalf("skip: %v", err)
	}
	if result.Task.Status != model.TaskSkipped {
		t.Fatal("task not marked skipped")
	}

	after, _ := goals.FindByID(goal.ID)
	if after.SkippedDays != 1 {
		t.Fatalf("skippedDays = %d, want 1", after.SkippedDays)
	}
	if after.CurrentDay != 1 {
		t.Fatalf("currentDay = %d, skip must not advance it", after.CurrentDay)
	}

	pending, _ := tasks.FindPendingByGoalID(goal.ID)
	if len(pending) != 3 {
		t.Fatalf("pending count = %d, want 3 (replacement appended)", len(pending))
	}

	// 原有 pending 各顺延一天
	if got := *pending[1].ScheduledDate; !got.Equal(day2Before.Add(24 * time.Hour)) {
		t.Fatalf("day 2 scheduled = %v, want shifted one day", got)
	}
	if got := *pending[2].ScheduledDate; !got.Equal(day3Before.Add(24 * time.Hour)) {
		t.Fatalf("day 3 scheduled = %v, want shifted one day", got)
	}

	// 替补任务沿用同一 DayNumber，排到队尾，子项重置
	replacement := pending[0]
	if replacement.DayNumber != 1 {
		t.Fatalf("replacement dayNumber = %d, want 1", replacement.DayNumber)
	}
	if replacement.ID == 1 {
		t.Fatal("replacement must be a new record")
	}
	for _, item := range replacement.ActionItems {
		if item.Completed {
			t.Fatal("replacement action items must be reset")
		}
	}
	wantDate := day3Before.Add(24 * time.Hour).Add(24 * time.Hour)
	if got := *replacement.ScheduledDate; !got.Equal(wantDate) {
		t.Fatalf("replacement scheduled = %v, want %v", got, wantDate)
	}

	// 跳过后今天的任务仍是 DayNumber 最小的替补
	today, err := s.TodayTask(1, goal.ID)
	if err != nil {
		t.Fatalf("today: %v", err)
	}
	if today.Task.DayNumber != 1 || today.Task.ID != replacement.ID {
		t.Fatalf("today after skip = day %d id %d, want replacement", today.Task.DayNumber, today.Task.ID)
	}
}

func TestSkipTaskIdempotency(t *testing.T) {
	s, tasks, goals, _ := newTestScheduler()
	seedGoal(t, goals, tasks, 1, 2)

	if _, err := s.SkipTask(1, 1); err != nil {
		t.Fatalf("first skip: %v", err)
	}
	if _, err := s.SkipTask(1, 1); !errors.Is(err, util.ErrTaskNotPending) {
		t.Fatalf("expected ErrTaskNotPending, got %v", err)
	}
}

func TestGoalExhaustion(t *testing.T) {
	s, tasks, goals, _ := newTestScheduler()
	goal := seedGoal(t, goals, tasks, 1, 2)

	if _, err := s.CompleteTask(1, 1); err != nil {
		t.Fatalf("complete day 1: %v", err)
	}
	result, err := s.CompleteTask(1, 2)
	if err != nil {
		t.Fatalf("complete day 2: %v", err)
	}
	if !result.AllCompleted {
		t.Fatal("expected AllCompleted after final task")
	}
	if result.Goal.Progress != 100 {
		t.Fatalf("progress = %d, want 100", result.Goal.Progress)
	}

	after, _ := goals.FindByID(goal.ID)
	if !after.IsCompleted || after.IsActive {
		t.Fatal("goal must be completed and inactive")
	}

	// 再查今日视图仍返回完成标志，且幂等
	today, err := s.TodayTask(1, goal.ID)
	if err != nil {
		t.Fatalf("today: %v", err)
	}
	if !today.AllCompleted || today.Task != nil {
		t.Fatal("expected AllCompleted view with no task")
	}
}

func TestProgressCountsSkipsInDenominator(t *testing.T) {
	s, tasks, goals, _ := newTestScheduler()
	goal := seedGoal(t, goals, tasks, 1, 3)

	if _, err := s.CompleteTask(1, 1); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := s.SkipTask(1, 2); err != nil {
		t.Fatalf("skip: %v", err)
	}

	// 3 原始 + 1 替补 = 4 条记录，1 完成 → 25%
	percent, err := NewProgressTracker(tasks).Percent(goal.ID)
	if err != nil {
		t.Fatalf("percent: %v", err)
	}
	if percent != 25 {
		t.Fatalf("progress = %d, want 25", percent)
	}
}

func TestUpdateActionItem(t *testing.T) {
	s, tasks, goals, _ := newTestScheduler()
	seedGoal(t, goals, tasks, 1, 1)

	stored, _ := tasks.FindByIDAndUserID(1, 1)
	stored.ActionItems = model.ActionItems{{Text: "read"}, {Text: "write"}}
	if err := tasks.Update(stored); err != nil {
		t.Fatalf("update: %v", err)
	}

	task, err := s.UpdateActionItem(1, 1, 1, true)
	if err != nil {
		t.Fatalf("update action item: %v", err)
	}
	if !task.ActionItems[1].Completed || task.ActionItems[0].Completed {
		t.Fatalf("action items = %+v", task.ActionItems)
	}
	// 勾选子项不改任务状态
	if task.Status != model.TaskPending {
		t.Fatal("action item toggle must not change task status")
	}

	if _, err := s.UpdateActionItem(1, 1, 5, true); !errors.Is(err, util.ErrActionItemIndex) {
		t.Fatalf("expected ErrActionItemIndex, got %v", err)
	}
	if _, err := s.UpdateActionItem(1, 1, -1, true); !errors.Is(err, util.ErrActionItemIndex) {
		t.Fatalf("expected ErrActionItemIndex for negative index, got %v", err)
	}
}

func TestTaskHistoryOrder(t *testing.T) {
	s, tasks, goals, _ := newTestScheduler()
	goal := seedGoal(t, goals, tasks, 1, 3)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	if _, err := s.CompleteTask(1, 1); err != nil {
		t.Fatalf("complete: %v", err)
	}
	s.now = func() time.Time { return base.Add(time.Hour) }
	if _, err := s.SkipTask(1, 2); err != nil {
		t.Fatalf("skip: %v", err)
	}

	history, err := s.TaskHistory(1, goal.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history len = %d, want 2", len(history))
	}
	// 最近处理的在前
	if history[0].Status != model.TaskSkipped || history[1].Status != model.TaskCompleted {
		t.Fatalf("history order wrong: %v then %v", history[0].Status, history[1].Status)
	}
}

package service

import (
	"errors"
	"testing"
	"time"

	"flowgoals_backend/internal/model"
	"flowgoals_backend/internal/util"
)

func newTestSharedGoal() (*SharedGoalService, *memGoalStore, *memTaskStore, *memInviteStore) {
	s, goals, tasks, invites, _ := newTestSharedGoalTx()
	return s, goals, tasks, invites
}

func newTestSharedGoalTx() (*SharedGoalService, *memGoalStore, *memTaskStore, *memInviteStore, *memTxRunner) {
	goals := newMemGoalStore()
	tasks := newMemTaskStore()
	invites := newMemInviteStore()
	users := newMemUserFinder(
		&model.User{BaseModel: model.BaseModel{ID: 1}, Name: "Ana"},
		&model.User{BaseModel: model.BaseModel{ID: 2}, Name: "Ben"},
	)
	tx := &memTxRunner{goals: goals, tasks: tasks, invites: invites}
	s := NewSharedGoalService(goals, tasks, invites, users, tx)
	s.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return s, goals, tasks, invites, tx
}

func seedSenderGoal(t *testing.T, goals *memGoalStore, tasks *memTaskStore) *model.Goal {
	t.Helper()
	goal := &model.Goal{
		UserID:       1,
		Type:         model.GoalLearning,
		Title:        "Learn Spanish",
		TotalDays:    3,
		DailyMinutes: 20,
		CurrentDay:   1,
		IsActive:     true,
	}
	if err := goals.Create(goal); err != nil {
		t.Fatalf("create goal: %v", err)
	}
	topics := []string{"Greetings", "Numbers", "Verbs"}
	for day, topic := range topics {
		task := &model.Task{
			GoalID:      goal.ID,
			UserID:      1,
			DayNumber:   day + 1,
			Title:       topic,
			Status:      model.TaskPending,
			ActionItems: model.ActionItems{{Text: "study " + topic, Completed: true}},
		}
		if err := tasks.Create(task); err != nil {
			t.Fatalf("create task: %v", err)
		}
	}
	return goal
}

func TestCreateInviteSnapshotsGoal(t *testing.T) {
	s, goals, tasks, _ := newTestSharedGoal()
	goal := seedSenderGoal(t, goals, tasks)

	invite, err := s.CreateInvite(1, goal.ID, 2)
	if err != nil {
		t.Fatalf("create invite: %v", err)
	}
	if invite.Title != "Learn Spanish" || invite.TotalDays != 3 || invite.SenderGoalID != goal.ID {
		t.Fatalf("invite snapshot wrong: %+v", invite)
	}
	if invite.Status != model.InvitePending {
		t.Fatalf("status = %q", invite.Status)
	}
}

func TestCreateInviteRejectsSelf(t *testing.T) {
	s, goals, tasks, _ := newTestSharedGoal()
	goal := seedSenderGoal(t, goals, tasks)
	if _, err := s.CreateInvite(1, goal.ID, 1); !errors.Is(err, util.ErrSelfInvite) {
		t.Fatalf("expected ErrSelfInvite, got %v", err)
	}
}

func TestCreateInviteDuplicatePending(t *testing.T) {
	s, goals, tasks, _ := newTestSharedGoal()
	goal := seedSenderGoal(t, goals, tasks)
	if _, err := s.CreateInvite(1, goal.ID, 2); err != nil {
		t.Fatalf("first invite: %v", err)
	}
	if _, err := s.CreateInvite(1, goal.ID, 2); !errors.Is(err, util.ErrDuplicateInvite) {
		t.Fatalf("expected ErrDuplicateInvite for duplicate, got %v", err)
	}
}

func TestAcceptInviteMirrorsTasks(t *testing.T) {
	s, goals, tasks, _ := newTestSharedGoal()
	senderGoal := seedSenderGoal(t, goals, tasks)

	invite, err := s.CreateInvite(1, senderGoal.ID, 2)
	if err != nil {
		t.Fatalf("create invite: %v", err)
	}

	receiverGoal, err := s.AcceptInvite(2, invite.ID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}

	// 双方目标互相链接
	if receiverGoal.PartnerID == nil || *receiverGoal.PartnerID != 1 {
		t.Fatalf("receiver partnerId = %v", receiverGoal.PartnerID)
	}
	if receiverGoal.PartnerGoalID == nil || *receiverGoal.PartnerGoalID != senderGoal.ID {
		t.Fatalf("receiver partnerGoalId = %v", receiverGoal.PartnerGoalID)
	}
	updatedSender, _ := goals.FindByID(senderGoal.ID)
	if updatedSender.PartnerGoalID == nil || *updatedSender.PartnerGoalID != receiverGoal.ID {
		t.Fatalf("sender partnerGoalId = %v", updatedSender.PartnerGoalID)
	}

	// 接收方获得独立的任务序列，主题一致，子项重置
	mirrored, _ := tasks.FindByGoalID(receiverGoal.ID)
	if len(mirrored) != 3 {
		t.Fatalf("mirrored tasks = %d, want 3", len(mirrored))
	}
	wantTopics := []string{"Greetings", "Numbers", "Verbs"}
	for i, task := range mirrored {
		if task.Title != wantTopics[i] || task.DayNumber != i+1 {
			t.Fatalf("mirrored task %d = %q day %d", i, task.Title, task.DayNumber)
		}
		if task.UserID != 2 {
			t.Fatalf("mirrored task owner = %d", task.UserID)
		}
		for _, item := range task.ActionItems {
			if item.Completed {
				t.Fatal("mirrored action items must start unchecked")
			}
		}
	}
}

func TestSkipDoesNotAffectPartner(t *testing.T) {
	shared, goals, tasks, _ := newTestSharedGoal()
	senderGoal := seedSenderGoal(t, goals, tasks)
	invite, _ := shared.CreateInvite(1, senderGoal.ID, 2)
	receiverGoal, err := shared.AcceptInvite(2, invite.ID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}

	scheduler := NewSchedulerService(tasks, goals, nil)
	scheduler.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }

	// 发起方跳过第1天
	senderToday, _ := scheduler.TodayTask(1, senderGoal.ID)
	if _, err := scheduler.SkipTask(1, senderToday.Task.ID); err != nil {
		t.Fatalf("skip: %v", err)
	}

	// 接收方的序列不受影响
	receiverTasks, _ := tasks.FindByGoalID(receiverGoal.ID)
	if len(receiverTasks) != 3 {
		t.Fatalf("receiver tasks = %d, want 3", len(receiverTasks))
	}
	updatedReceiver, _ := goals.FindByID(receiverGoal.ID)
	if updatedReceiver.SkippedDays != 0 {
		t.Fatalf("receiver skippedDays = %d", updatedReceiver.SkippedDays)
	}

	// 伙伴进度视图反映发起方的真实状态
	progress, err := shared.GetPartnerProgress(2, receiverGoal.ID)
	if err != nil {
		t.Fatalf("partner progress: %v", err)
	}
	if progress.Partner.ID != 1 {
		t.Fatalf("partner id = %d", progress.Partner.ID)
	}
	if progress.Goal.SkippedDays != 1 {
		t.Fatalf("partner skippedDays = %d, want 1", progress.Goal.SkippedDays)
	}
}

func TestPartnerProgressReturnsFullSequence(t *testing.T) {
	shared, goals, tasks, _ := newTestSharedGoal()
	senderGoal := seedSenderGoal(t, goals, tasks)
	invite, _ := shared.CreateInvite(1, senderGoal.ID, 2)
	receiverGoal, err := shared.AcceptInvite(2, invite.ID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}

	// 发起方完成第1天
	scheduler := NewSchedulerService(tasks, goals, nil)
	scheduler.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	senderToday, _ := scheduler.TodayTask(1, senderGoal.ID)
	if _, err := scheduler.CompleteTask(1, senderToday.Task.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	progress, err := shared.GetPartnerProgress(2, receiverGoal.ID)
	if err != nil {
		t.Fatalf("partner progress: %v", err)
	}
	// 完整任务序列，不只是当前任务
	if len(progress.Tasks) != 3 {
		t.Fatalf("partner tasks = %d, want 3", len(progress.Tasks))
	}
	for i, task := range progress.Tasks {
		if task.DayNumber != i+1 {
			t.Fatalf("task %d dayNumber = %d", i, task.DayNumber)
		}
	}
	if progress.Tasks[0].Status != model.TaskCompleted {
		t.Fatalf("day 1 status = %q, want completed", progress.Tasks[0].Status)
	}
	if progress.CurrentTask == nil || progress.CurrentTask.DayNumber != 2 {
		t.Fatalf("currentTask = %+v, want day 2", progress.CurrentTask)
	}
}

type failingGoalCreate struct {
	GoalStore
}

func (failingGoalCreate) Create(*model.Goal) error {
	return errors.New("insert failed")
}

func TestAcceptInviteRollsBackOnFailure(t *testing.T) {
	s, goals, tasks, invites, tx := newTestSharedGoalTx()
	senderGoal := seedSenderGoal(t, goals, tasks)
	invite, _ := s.CreateInvite(1, senderGoal.ID, 2)

	tx.goalsOverride = failingGoalCreate{goals}
	if _, err := s.AcceptInvite(2, invite.ID); err == nil {
		t.Fatal("expected accept to fail")
	}

	// 半途失败不留痕迹：邀请回到 pending，没有目标和任务
	pending, _ := invites.FindPendingByReceiverID(2)
	if len(pending) != 1 {
		t.Fatalf("pending invites = %d, want 1", len(pending))
	}
	if _, err := goals.FindActiveByUserID(2); err == nil {
		t.Fatal("failed accept must not leave a goal behind")
	}

	// 存储恢复后重试成功
	tx.goalsOverride = nil
	if _, err := s.AcceptInvite(2, invite.ID); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
}

func TestDeclineInviteIsTerminal(t *testing.T) {
	s, goals, tasks, _ := newTestSharedGoal()
	senderGoal := seedSenderGoal(t, goals, tasks)
	invite, _ := s.CreateInvite(1, senderGoal.ID, 2)

	if err := s.DeclineInvite(2, invite.ID); err != nil {
		t.Fatalf("decline: %v", err)
	}
	// 拒绝后不可再接受
	if _, err := s.AcceptInvite(2, invite.ID); !errors.Is(err, util.ErrInviteResolved) {
		t.Fatalf("expected ErrInviteResolved after decline, got %v", err)
	}
	// 再次拒绝同样报已处理
	if err := s.DeclineInvite(2, invite.ID); !errors.Is(err, util.ErrInviteResolved) {
		t.Fatalf("expected ErrInviteResolved, got %v", err)
	}
	// 没有为接收方创建任何目标
	if _, err := goals.FindActiveByUserID(2); err == nil {
		t.Fatal("decline must not create a goal")
	}
}

func TestAcceptInviteOwnership(t *testing.T) {
	s, goals, tasks, _ := newTestSharedGoal()
	senderGoal := seedSenderGoal(t, goals, tasks)
	invite, _ := s.CreateInvite(1, senderGoal.ID, 2)

	// 非接收方接受按不存在处理
	if _, err := s.AcceptInvite(1, invite.ID); !errors.Is(err, util.ErrInviteNotFound) {
		t.Fatalf("expected ErrInviteNotFound, got %v", err)
	}
}

func TestPartnerProgressWithoutPartner(t *testing.T) {
	s, goals, tasks, _ := newTestSharedGoal()
	goal := seedSenderGoal(t, goals, tasks)
	if _, err := s.GetPartnerProgress(1, goal.ID); !errors.Is(err, util.ErrNoPartner) {
		t.Fatalf("expected ErrNoPartner, got %v", err)
	}
}

func TestMirrorPlanCollapsesSkipDuplicates(t *testing.T) {
	s, goals, tasks, _ := newTestSharedGoal()
	senderGoal := seedSenderGoal(t, goals, tasks)

	// 发起方先跳过一天，历史里出现重号 DayNumber
	scheduler := NewSchedulerService(tasks, goals, nil)
	scheduler.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	if _, err := scheduler.SkipTask(1, 1); err != nil {
		t.Fatalf("skip: %v", err)
	}

	invite, _ := s.CreateInvite(1, senderGoal.ID, 2)
	receiverGoal, err := s.AcceptInvite(2, invite.ID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}

	mirrored, _ := tasks.FindByGoalID(receiverGoal.ID)
	if len(mirrored) != 3 {
		t.Fatalf("mirrored tasks = %d, want 3 (duplicates collapsed)", len(mirrored))
	}
	seen := map[int]bool{}
	for _, task := range mirrored {
		if seen[task.DayNumber] {
			t.Fatalf("duplicate dayNumber %d in mirror", task.DayNumber)
		}
		seen[task.DayNumber] = true
	}
}

package service

import (
	"sort"
	"time"

	"flowgoals_backend/internal/model"

	"gorm.io/gorm"
)

// 内存实现的存储，测试用

type memTaskStore struct {
	tasks  map[uint]*model.Task
	nextID uint
	order  []uint // 插入顺序，等价于自增主键排序
}

func newMemTaskStore() *memTaskStore {
	return &memTaskStore{tasks: map[uint]*model.Task{}}
}

func copyTask(t *model.Task) *model.Task {
	c := *t
	c.ActionItems = append(model.ActionItems{}, t.ActionItems...)
	c.Resources = append(model.Resources{}, t.Resources...)
	return &c
}

func (s *memTaskStore) Create(task *model.Task) error {
	s.nextID++
	task.ID = s.nextID
	s.tasks[task.ID] = copyTask(task)
	s.order = append(s.order, task.ID)
	return nil
}

func (s *memTaskStore) CreateBatch(tasks []*model.Task) error {
	for _, t := range tasks {
		if err := s.Create(t); err != nil {
			return err
		}
	}
	return nil
}

func (s *memTaskStore) FindByIDAndUserID(id, userID uint) (*model.Task, error) {
	t, ok := s.tasks[id]
	if !ok || t.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return copyTask(t), nil
}

func (s *memTaskStore) byGoal(goalID uint, filter func(*model.Task) bool) []*model.Task {
	var out []*model.Task
	for _, id := range s.order {
		t := s.tasks[id]
		if t != nil && t.GoalID == goalID && (filter == nil || filter(t)) {
			out = append(out, copyTask(t))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DayNumber != out[j].DayNumber {
			return out[i].DayNumber < out[j].DayNumber
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *memTaskStore) FindByGoalID(goalID uint) ([]*model.Task, error) {
	return s.byGoal(goalID, nil), nil
}

func (s *memTaskStore) FindPendingByGoalID(goalID uint) ([]*model.Task, error) {
	return s.byGoal(goalID, func(t *model.Task) bool { return t.Status == model.TaskPending }), nil
}

func (s *memTaskStore) FirstPendingByGoalID(goalID uint) (*model.Task, error) {
	pending := s.byGoal(goalID, func(t *model.Task) bool { return t.Status == model.TaskPending })
	if len(pending) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return pending[0], nil
}

func (s *memTaskStore) FindHistoryByGoalID(goalID, userID uint) ([]*model.Task, error) {
	history := s.byGoal(goalID, func(t *model.Task) bool {
		return t.UserID == userID && t.Status != model.TaskPending
	})
	sort.SliceStable(history, func(i, j int) bool {
		return processedAt(history[i]).After(processedAt(history[j]))
	})
	return history, nil
}

func processedAt(t *model.Task) time.Time {
	if t.CompletedAt != nil {
		return *t.CompletedAt
	}
	if t.SkippedAt != nil {
		return *t.SkippedAt
	}
	return time.Time{}
}

func (s *memTaskStore) CountByGoalID(goalID uint) (int64, error) {
	return int64(len(s.byGoal(goalID, nil))), nil
}

func (s *memTaskStore) CountByGoalIDAndStatus(goalID uint, status model.TaskStatus) (int64, error) {
	return int64(len(s.byGoal(goalID, func(t *model.Task) bool { return t.Status == status }))), nil
}

func (s *memTaskStore) MarkCompleted(id uint, at time.Time) (bool, error) {
	t, ok := s.tasks[id]
	if !ok || t.Status != model.TaskPending {
		return false, nil
	}
	t.Status = model.TaskCompleted
	t.CompletedAt = &at
	return true, nil
}

func (s *memTaskStore) MarkSkipped(id uint, at time.Time) (bool, error) {
	t, ok := s.tasks[id]
	if !ok || t.Status != model.TaskPending {
		return false, nil
	}
	t.Status = model.TaskSkipped
	t.SkippedAt = &at
	return true, nil
}

func (s *memTaskStore) UpdateScheduledDate(id uint, at time.Time) error {
	t, ok := s.tasks[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	t.ScheduledDate = &at
	return nil
}

func (s *memTaskStore) Update(task *model.Task) error {
	if _, ok := s.tasks[task.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	s.tasks[task.ID] = copyTask(task)
	return nil
}

type memGoalStore struct {
	goals  map[uint]*model.Goal
	nextID uint
}

func newMemGoalStore() *memGoalStore {
	return &memGoalStore{goals: map[uint]*model.Goal{}}
}

func copyGoal(g *model.Goal) *model.Goal {
	c := *g
	return &c
}

func (s *memGoalStore) Create(goal *model.Goal) error {
	s.nextID++
	goal.ID = s.nextID
	s.goals[goal.ID] = copyGoal(goal)
	return nil
}

func (s *memGoalStore) Update(goal *model.Goal) error {
	if _, ok := s.goals[goal.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	s.goals[goal.ID] = copyGoal(goal)
	return nil
}

func (s *memGoalStore) FindByID(id uint) (*model.Goal, error) {
	g, ok := s.goals[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return copyGoal(g), nil
}

func (s *memGoalStore) FindByIDAndUserID(id, userID uint) (*model.Goal, error) {
	g, ok := s.goals[id]
	if !ok || g.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return copyGoal(g), nil
}

func (s *memGoalStore) FindByUserID(userID uint) ([]model.Goal, error) {
	var out []model.Goal
	for id := uint(1); id <= s.nextID; id++ {
		if g, ok := s.goals[id]; ok && g.UserID == userID {
			out = append(out, *copyGoal(g))
		}
	}
	return out, nil
}

func (s *memGoalStore) FindActiveByUserID(userID uint) (*model.Goal, error) {
	for id := uint(1); id <= s.nextID; id++ {
		if g, ok := s.goals[id]; ok && g.UserID == userID && g.IsActive && !g.IsCompleted {
			return copyGoal(g), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memGoalStore) DeactivateByUserID(userID uint) error {
	for _, g := range s.goals {
		if g.UserID == userID {
			g.IsActive = false
		}
	}
	return nil
}

func (s *memGoalStore) Delete(id, userID uint) error {
	g, ok := s.goals[id]
	if !ok || g.UserID != userID {
		return gorm.ErrRecordNotFound
	}
	delete(s.goals, id)
	return nil
}

type memInviteStore struct {
	invites map[string]*model.GoalInvite
	nextID  int
}

func newMemInviteStore() *memInviteStore {
	return &memInviteStore{invites: map[string]*model.GoalInvite{}}
}

func (s *memInviteStore) Create(invite *model.GoalInvite) error {
	if invite.ID == "" {
		invite.ID = model.GenerateUUID()
	}
	c := *invite
	s.invites[invite.ID] = &c
	return nil
}

func (s *memInviteStore) FindByID(id string) (*model.GoalInvite, error) {
	inv, ok := s.invites[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *inv
	return &c, nil
}

func (s *memInviteStore) FindPendingByReceiverID(receiverID uint) ([]model.GoalInvite, error) {
	var out []model.GoalInvite
	for _, inv := range s.invites {
		if inv.ReceiverID == receiverID && inv.Status == model.InvitePending {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (s *memInviteStore) HasPendingBetween(senderID, receiverID, senderGoalID uint) (bool, error) {
	for _, inv := range s.invites {
		if inv.SenderID == senderID && inv.ReceiverID == receiverID &&
			inv.SenderGoalID == senderGoalID && inv.Status == model.InvitePending {
			return true, nil
		}
	}
	return false, nil
}

func (s *memInviteStore) ResolveIfPending(id string, status model.InviteStatus) (bool, error) {
	inv, ok := s.invites[id]
	if !ok || inv.Status != model.InvitePending {
		return false, nil
	}
	inv.Status = status
	return true, nil
}

type memGoalSnapshot struct {
	goals  map[uint]*model.Goal
	nextID uint
}

func (s *memGoalStore) snapshot() memGoalSnapshot {
	snap := memGoalSnapshot{goals: make(map[uint]*model.Goal, len(s.goals)), nextID: s.nextID}
	for id, g := range s.goals {
		snap.goals[id] = copyGoal(g)
	}
	return snap
}

func (s *memGoalStore) restore(snap memGoalSnapshot) {
	s.goals = snap.goals
	s.nextID = snap.nextID
}

type memTaskSnapshot struct {
	tasks  map[uint]*model.Task
	nextID uint
	order  []uint
}

func (s *memTaskStore) snapshot() memTaskSnapshot {
	snap := memTaskSnapshot{
		tasks:  make(map[uint]*model.Task, len(s.tasks)),
		nextID: s.nextID,
		order:  append([]uint{}, s.order...),
	}
	for id, t := range s.tasks {
		snap.tasks[id] = copyTask(t)
	}
	return snap
}

func (s *memTaskStore) restore(snap memTaskSnapshot) {
	s.tasks = snap.tasks
	s.nextID = snap.nextID
	s.order = snap.order
}

func (s *memInviteStore) snapshot() map[string]*model.GoalInvite {
	snap := make(map[string]*model.GoalInvite, len(s.invites))
	for id, inv := range s.invites {
		c := *inv
		snap[id] = &c
	}
	return snap
}

func (s *memInviteStore) restore(snap map[string]*model.GoalInvite) {
	s.invites = snap
}

// memTxRunner 模拟事务：fn 出错时把所有存储恢复到调用前的快照
type memTxRunner struct {
	goals   *memGoalStore
	tasks   *memTaskStore
	invites *memInviteStore

	// 测试注入的替身，缺省直接用上面的内存存储
	goalsOverride GoalStore
}

func (r *memTxRunner) Transact(fn func(goals GoalStore, tasks TaskStore, invites InviteStore) error) error {
	goalsSnap := r.goals.snapshot()
	tasksSnap := r.tasks.snapshot()
	invitesSnap := r.invites.snapshot()

	goals := GoalStore(r.goals)
	if r.goalsOverride != nil {
		goals = r.goalsOverride
	}
	if err := fn(goals, r.tasks, r.invites); err != nil {
		r.goals.restore(goalsSnap)
		r.tasks.restore(tasksSnap)
		r.invites.restore(invitesSnap)
		return err
	}
	return nil
}

type memUserFinder struct {
	users map[uint]*model.User
}

func newMemUserFinder(users ...*model.User) *memUserFinder {
	m := &memUserFinder{users: map[uint]*model.User{}}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (s *memUserFinder) FindByID(id uint) (*model.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *u
	return &c, nil
}

package service

import (
	"errors"
	"sort"
	"time"

	"flowgoals_backend/internal/model"
	"flowgoals_backend/internal/util"
	"flowgoals_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SharedGoalService 共享目标：邀请、接受时镜像任务序列、伙伴进度。
// 双方各自持有独立的 Goal 和任务序列，一方跳过不影响另一方。
type SharedGoalService struct {
	goals   GoalStore
	tasks   TaskStore
	invites InviteStore
	users   UserFinder
	tx      TxRunner
	now     func() time.Time
}

func NewSharedGoalService(goals GoalStore, tasks TaskStore, invites InviteStore, users UserFinder, tx TxRunner) *SharedGoalService {
	return &SharedGoalService{goals: goals, tasks: tasks, invites: invites, users: users, tx: tx, now: time.Now}
}

// CreateInvite 以发起方目标为草稿快照创建邀请
func (s *SharedGoalService) CreateInvite(senderID, senderGoalID, receiverID uint) (*model.GoalInvite, error) {
	if senderID == receiverID {
		return nil, util.ErrSelfInvite
	}
	if _, err := s.users.FindByID(receiverID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	goal, err := s.goals.FindByIDAndUserID(senderGoalID, senderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrGoalNotFound
		}
		return nil, err
	}
	exists, err := s.invites.HasPendingBetween(senderID, receiverID, senderGoalID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, util.ErrDuplicateInvite
	}

	invite := &model.GoalInvite{
		SenderID:     senderID,
		ReceiverID:   receiverID,
		SenderGoalID: goal.ID,
		GoalType:     goal.Type,
		Title:        goal.Title,
		Description:  goal.Description,
		TotalDays:    goal.TotalDays,
		DailyMinutes: goal.DailyMinutes,
		Status:       model.InvitePending,
	}
	if err := s.invites.Create(invite); err != nil {
		return nil, err
	}
	return invite, nil
}

// PendingInvites 用户收到的待处理邀请
func (s *SharedGoalService) PendingInvites(userID uint) ([]model.GoalInvite, error) {
	return s.invites.FindPendingByReceiverID(userID)
}

// AcceptInvite 接受邀请：复制发起方的逐天主题建出接收方自己的目标和任务序列，
// 并把双方目标通过 PartnerGoalID 互相链接。全部写入在一个事务里，
// 事务内的条件更新保证并发接受只有一方生效，失败则邀请回到 pending 可重试。
func (s *SharedGoalService) AcceptInvite(userID uint, inviteID string) (*model.Goal, error) {
	invite, err := s.invites.FindByID(inviteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrInviteNotFound
		}
		return nil, err
	}
	if invite.ReceiverID != userID {
		return nil, util.ErrInviteNotFound
	}
	if invite.Status != model.InvitePending {
		return nil, util.ErrInviteResolved
	}

	senderGoal, err := s.goals.FindByID(invite.SenderGoalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrGoalNotFound
		}
		return nil, err
	}

	plan, err := s.mirrorPlan(senderGoal)
	if err != nil {
		return nil, err
	}

	var goal *model.Goal
	err = s.tx.Transact(func(goals GoalStore, tasks TaskStore, invites InviteStore) error {
		won, err := invites.ResolveIfPending(invite.ID, model.InviteAccepted)
		if err != nil {
			return err
		}
		if !won {
			return util.ErrInviteResolved
		}

		if err := goals.DeactivateByUserID(userID); err != nil {
			return err
		}

		goal = &model.Goal{
			UserID:        userID,
			Type:          invite.GoalType,
			Title:         invite.Title,
			Description:   invite.Description,
			TotalDays:     invite.TotalDays,
			DailyMinutes:  invite.DailyMinutes,
			CurrentDay:    1,
			IsActive:      true,
			PartnerID:     &invite.SenderID,
			PartnerGoalID: &senderGoal.ID,
		}
		if err := goals.Create(goal); err != nil {
			return err
		}

		startOfDay := s.now().Truncate(24 * time.Hour)
		mirrored := make([]*model.Task, 0, len(plan))
		for i, src := range plan {
			scheduled := startOfDay.AddDate(0, 0, i)
			mirrored = append(mirrored, &model.Task{
				GoalID:           goal.ID,
				UserID:           userID,
				DayNumber:        src.DayNumber,
				Title:            src.Title,
				Description:      src.Description,
				Phase:            src.Phase,
				SkillProgression: src.SkillProgression,
				EstimatedMinutes: src.EstimatedMinutes,
				Status:           model.TaskPending,
				ScheduledDate:    &scheduled,
				ActionItems:      resetActionItems(src.ActionItems),
				Resources:        src.Resources,
			})
		}
		if err := tasks.CreateBatch(mirrored); err != nil {
			return err
		}

		senderGoal.PartnerID = &userID
		senderGoal.PartnerGoalID = &goal.ID
		return goals.Update(senderGoal)
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info("goal invite accepted",
		zap.String("inviteId", invite.ID),
		zap.Uint("senderGoalId", senderGoal.ID),
		zap.Uint("receiverGoalId", goal.ID))

	return goal, nil
}

// mirrorPlan 从发起方任务序列提取每个 DayNumber 的主题，升序去重。
// 跳过产生的重号取最早创建的那条，保证长度不超过原计划。
func (s *SharedGoalService) mirrorPlan(senderGoal *model.Goal) ([]*model.Task, error) {
	all, err := s.tasks.FindByGoalID(senderGoal.ID)
	if err != nil {
		return nil, err
	}
	byDay := make(map[int]*model.Task, len(all))
	for _, t := range all {
		if _, seen := byDay[t.DayNumber]; !seen {
			byDay[t.DayNumber] = t
		}
	}
	days := make([]int, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Ints(days)

	plan := make([]*model.Task, 0, len(days))
	for _, day := range days {
		plan = append(plan, byDay[day])
	}
	return plan, nil
}

// DeclineInvite 拒绝邀请，终态，不创建任何目标
func (s *SharedGoalService) DeclineInvite(userID uint, inviteID string) error {
	invite, err := s.invites.FindByID(inviteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrInviteNotFound
		}
		return err
	}
	if invite.ReceiverID != userID {
		return util.ErrInviteNotFound
	}
	won, err := s.invites.ResolveIfPending(invite.ID, model.InviteDeclined)
	if err != nil {
		return err
	}
	if !won {
		return util.ErrInviteResolved
	}
	return nil
}

// PartnerProgress 伙伴在镜像目标上的进度视图，任务序列只读
type PartnerProgress struct {
	Partner struct {
		ID      uint   `json:"id"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	} `json:"partner"`
	Goal        *model.GoalSummary `json:"goal"`
	Tasks       []*model.Task      `json:"partnerTasks"`
	CurrentTask *model.Task        `json:"currentTask,omitempty"`
}

// GetPartnerProgress 查看共享目标中对方的进度
func (s *SharedGoalService) GetPartnerProgress(userID, goalID uint) (*PartnerProgress, error) {
	goal, err := s.goals.FindByIDAndUserID(goalID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrGoalNotFound
		}
		return nil, err
	}
	if goal.PartnerGoalID == nil {
		return nil, util.ErrNoPartner
	}

	partnerGoal, err := s.goals.FindByID(*goal.PartnerGoalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrNoPartner
		}
		return nil, err
	}
	partner, err := s.users.FindByID(partnerGoal.UserID)
	if err != nil {
		return nil, err
	}

	summary, err := NewProgressTracker(s.tasks).Summary(partnerGoal)
	if err != nil {
		return nil, err
	}

	sequence, err := s.tasks.FindByGoalID(partnerGoal.ID)
	if err != nil {
		return nil, err
	}

	result := &PartnerProgress{Goal: summary, Tasks: sequence}
	result.Partner.ID = partner.ID
	result.Partner.Name = partner.Name
	result.Partner.Picture = partner.Picture

	current, err := s.tasks.FirstPendingByGoalID(partnerGoal.ID)
	if err == nil {
		result.CurrentTask = current
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return result, nil
}

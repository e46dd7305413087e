package service

import (
	"time"

	"flowgoals_backend/internal/model"
)

// 调度核心通过窄接口访问存储，gorm 仓储天然满足，
// 测试时可以换成内存实现而不依赖数据库。

// TaskStore 任务持久化
type TaskStore interface {
	Create(task *model.Task) error
	CreateBatch(tasks []*model.Task) error
	FindByIDAndUserID(id, userID uint) (*model.Task, error)
	FindByGoalID(goalID uint) ([]*model.Task, error)
	FindPendingByGoalID(goalID uint) ([]*model.Task, error)
	FirstPendingByGoalID(goalID uint) (*model.Task, error)
	FindHistoryByGoalID(goalID, userID uint) ([]*model.Task, error)
	CountByGoalID(goalID uint) (int64, error)
	CountByGoalIDAndStatus(goalID uint, status model.TaskStatus) (int64, error)
	MarkCompleted(id uint, at time.Time) (bool, error)
	MarkSkipped(id uint, at time.Time) (bool, error)
	UpdateScheduledDate(id uint, at time.Time) error
	Update(task *model.Task) error
}

// GoalStore 目标持久化
type GoalStore interface {
	Create(goal *model.Goal) error
	Update(goal *model.Goal) error
	FindByID(id uint) (*model.Goal, error)
	FindByIDAndUserID(id, userID uint) (*model.Goal, error)
	FindByUserID(userID uint) ([]model.Goal, error)
	FindActiveByUserID(userID uint) (*model.Goal, error)
	DeactivateByUserID(userID uint) error
	Delete(id, userID uint) error
}

// InviteStore 共享目标邀请持久化
type InviteStore interface {
	Create(invite *model.GoalInvite) error
	FindByID(id string) (*model.GoalInvite, error)
	FindPendingByReceiverID(receiverID uint) ([]model.GoalInvite, error)
	HasPendingBetween(senderID, receiverID, senderGoalID uint) (bool, error)
	ResolveIfPending(id string, status model.InviteStatus) (bool, error)
}

// UserFinder 只读的用户查询
type UserFinder interface {
	FindByID(id uint) (*model.User, error)
}

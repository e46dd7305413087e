package service

import (
	"flowgoals_backend/internal/repository"

	"gorm.io/gorm"
)

// TxRunner 把跨多张表的写入放进同一个事务执行。
// fn 收到的存储全部绑定在该事务上，fn 返回错误则整体回滚。
type TxRunner interface {
	Transact(fn func(goals GoalStore, tasks TaskStore, invites InviteStore) error) error
}

// GormTxRunner 生产实现：在 gorm 事务内重建绑定到事务连接的仓储
type GormTxRunner struct {
	DB *gorm.DB
}

func (r *GormTxRunner) Transact(fn func(goals GoalStore, tasks TaskStore, invites InviteStore) error) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		return fn(
			repository.NewGoalRepository(tx),
			repository.NewTaskRepository(tx),
			repository.NewGoalInviteRepository(tx),
		)
	})
}

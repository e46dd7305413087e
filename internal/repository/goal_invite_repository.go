package repository

import (
	"flowgoals_backend/internal/model"

	"gorm.io/gorm"
)

// GoalInviteRepository 共享目标邀请的数据访问

type GoalInviteRepository struct {
	DB *gorm.DB
}

func NewGoalInviteRepository(db *gorm.DB) *GoalInviteRepository {
	return &GoalInviteRepository{DB: db}
}

func (r *GoalInviteRepository) Create(invite *model.GoalInvite) error {
	return r.DB.Create(invite).Error
}

func (r *GoalInviteRepository) FindByID(id string) (*model.GoalInvite, error) {
	var invite model.GoalInvite
	err := r.DB.First(&invite, "id = ?", id).Error
	return &invite, err
}

func (r *GoalInviteRepository) FindPendingByReceiverID(receiverID uint) ([]model.GoalInvite, error) {
	var invites []model.GoalInvite
	err := r.DB.Preload("Sender").
		Where("receiver_id = ? AND status = ?", receiverID, model.InvitePending).
		Order("created_at DESC").
		Find(&invites).Error
	return invites, err
}

func (r *GoalInviteRepository) HasPendingBetween(senderID, receiverID uint, senderGoalID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.GoalInvite{}).
		Where("sender_id = ? AND receiver_id = ? AND sender_goal_id = ? AND status = ?",
			senderID, receiverID, senderGoalID, model.InvitePending).
		Count(&count).Error
	return count > 0, err
}

// ResolveIfPending 条件更新到终态，已处理过的邀请返回 false
func (r *GoalInviteRepository) ResolveIfPending(id string, status model.InviteStatus) (bool, error) {
	result := r.DB.Model(&model.GoalInvite{}).
		Where("id = ? AND status = ?", id, model.InvitePending).
		Update("status", status)
	return result.RowsAffected > 0, result.Error
}

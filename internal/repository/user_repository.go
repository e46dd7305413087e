package repository

import (
	"time"

	"flowgoals_backend/internal/model"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(user *model.User) error {
	return r.DB.Create(user).Error
}

func (r *UserRepository) FindByID(id uint) (*model.User, error) {
	var user model.User
	err := r.DB.First(&user, id).Error
	return &user, err
}

func (r *UserRepository) FindByGoogleID(googleID string) (*model.User, error) {
	var user model.User
	err := r.DB.Where("google_id = ?", googleID).First(&user).Error
	return &user, err
}

func (r *UserRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	err := r.DB.Where("email = ?", email).First(&user).Error
	return &user, err
}

func (r *UserRepository) Update(user *model.User) error {
	return r.DB.Save(user).Error
}

// UpdateSettings 只更新显式传入的设置字段
func (r *UserRepository) UpdateSettings(id uint, updates map[string]interface{}) error {
	return r.DB.Model(&model.User{}).Where("id = ?", id).Updates(updates).Error
}

func (r *UserRepository) UpdateLastSeen(userID uint) error {
	return r.DB.Model(&model.User{}).
		Where("id = ?", userID).
		Update("last_active_at", time.Now()).Error
}

// FindVisibleMembers 社区成员列表，排除自己和关闭了动态展示的用户
func (r *UserRepository) FindVisibleMembers(excludeUserID uint) ([]model.User, error) {
	var users []model.User
	err := r.DB.Where("id != ? AND show_in_activity_feed = ?", excludeUserID, true).
		Order("created_at DESC").
		Find(&users).Error
	return users, err
}

// FindReminderCandidates 开启每日提醒的用户
func (r *UserRepository) FindReminderCandidates() ([]model.User, error) {
	var users []model.User
	err := r.DB.Where("reminder_enabled = ?", true).Find(&users).Error
	return users, err
}

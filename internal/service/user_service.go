package service

import (
	"errors"

	"flowgoals_backend/internal/model"
	"flowgoals_backend/internal/repository"
	"flowgoals_backend/internal/util"

	"gorm.io/gorm"
)

// UserService 设置、资料页、社区成员
type UserService struct {
	users   *repository.UserRepository
	goals   *repository.GoalRepository
	tasks   *repository.TaskRepository
	friends *repository.FriendshipRepository
}

func NewUserService(users *repository.UserRepository, goals *repository.GoalRepository, tasks *repository.TaskRepository, friends *repository.FriendshipRepository) *UserService {
	return &UserService{users: users, goals: goals, tasks: tasks, friends: friends}
}

func (s *UserService) GetByID(id uint) (*model.User, error) {
	user, err := s.users.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// SettingsUpdate 指针字段区分"未提交"和"设为零值"
type SettingsUpdate struct {
	Name               *string `json:"name,omitempty"`
	Timezone           *string `json:"timezone,omitempty"`
	ShowInActivityFeed *bool   `json:"showInActivityFeed,omitempty"`
	ReminderEnabled    *bool   `json:"reminderEnabled,omitempty"`
	OpenAIAPIKey       *string `json:"openaiApiKey,omitempty"`
}

// UpdateSettings 局部更新用户设置
func (s *UserService) UpdateSettings(userID uint, req SettingsUpdate) (*model.User, error) {
	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Timezone != nil {
		updates["timezone"] = *req.Timezone
	}
	if req.ShowInActivityFeed != nil {
		updates["show_in_activity_feed"] = *req.ShowInActivityFeed
	}
	if req.ReminderEnabled != nil {
		updates["reminder_enabled"] = *req.ReminderEnabled
	}
	if req.OpenAIAPIKey != nil {
		updates["open_ai_api_key"] = *req.OpenAIAPIKey
	}
	if len(updates) > 0 {
		if err := s.users.UpdateSettings(userID, updates); err != nil {
			return nil, err
		}
	}
	return s.GetByID(userID)
}

// CompleteOnboarding 首个目标建好后置位
func (s *UserService) CompleteOnboarding(userID uint) error {
	return s.users.UpdateSettings(userID, map[string]interface{}{"onboarding_complete": true})
}

// UpdatePicture 头像上传后回写 URL
func (s *UserService) UpdatePicture(userID uint, pictureURL string) error {
	return s.users.UpdateSettings(userID, map[string]interface{}{"picture": pictureURL})
}

// Profile 自己的资料页
type Profile struct {
	User            *model.User           `json:"user"`
	Friends         []model.User          `json:"friends"`
	PendingRequests []model.FriendRequest `json:"pendingRequests"`
	TotalCompleted  int64                 `json:"totalCompleted"`
	HasOpenAIKey    bool                  `json:"hasOpenaiApiKey"`
}

func (s *UserService) Profile(userID uint) (*Profile, error) {
	user, err := s.GetByID(userID)
	if err != nil {
		return nil, err
	}
	friends, err := s.friends.GetFriends(userID)
	if err != nil {
		return nil, err
	}
	requests, err := s.friends.GetPendingRequests(userID)
	if err != nil {
		return nil, err
	}
	completed, err := s.tasks.CountByUserIDAndStatus(userID, model.TaskCompleted)
	if err != nil {
		return nil, err
	}
	return &Profile{
		User:            user,
		Friends:         friends,
		PendingRequests: requests,
		TotalCompleted:  completed,
		HasOpenAIKey:    user.OpenAIAPIKey != "",
	}, nil
}

// PublicSkill 公开资料页上的单个技能条目
type PublicSkill struct {
	Title       string `json:"title"`
	Progress    int    `json:"progress"`
	IsActive    bool   `json:"isActive"`
	IsCompleted bool   `json:"isCompleted"`
}

// PublicProfile 他人视角的资料页
type PublicProfile struct {
	ID                uint          `json:"id"`
	Name              string        `json:"name"`
	Picture           string        `json:"picture"`
	Skills            []PublicSkill `json:"skills"`
	IsFriend          bool          `json:"isFriend"`
	HasPendingRequest bool          `json:"hasPendingRequest"`
}

// GetPublicProfile 查看其他用户。对方关闭了动态可见性时按不存在处理
func (s *UserService) GetPublicProfile(viewerID, targetID uint) (*PublicProfile, error) {
	target, err := s.GetByID(targetID)
	if err != nil {
		return nil, err
	}
	if !target.ShowInActivityFeed && viewerID != targetID {
		return nil, util.ErrUserNotFound
	}

	goals, err := s.goals.FindByUserID(targetID)
	if err != nil {
		return nil, err
	}
	tracker := NewProgressTracker(s.tasks)
	skills := make([]PublicSkill, 0, len(goals))
	for _, g := range goals {
		percent, err := tracker.Percent(g.ID)
		if err != nil {
			return nil, err
		}
		skills = append(skills, PublicSkill{
			Title:       g.Title,
			Progress:    percent,
			IsActive:    g.IsActive,
			IsCompleted: g.IsCompleted,
		})
	}

	isFriend, err := s.friends.IsFriend(viewerID, targetID)
	if err != nil {
		return nil, err
	}
	pendingReq := false
	if !isFriend && viewerID != targetID {
		if req, err := s.friends.GetPendingRequestBetween(viewerID, targetID); err == nil && req != nil {
			pendingReq = true
		}
	}

	return &PublicProfile{
		ID:                target.ID,
		Name:              target.Name,
		Picture:           target.Picture,
		Skills:            skills,
		IsFriend:          isFriend,
		HasPendingRequest: pendingReq,
	}, nil
}

// TouchLastSeen 请求中间件里异步调用
func (s *UserService) TouchLastSeen(userID uint) error {
	return s.users.UpdateLastSeen(userID)
}

package service

import (
	"fmt"

	"flowgoals_backend/internal/model"
	"flowgoals_backend/internal/repository"
	"flowgoals_backend/pkg/logger"

	"go.uber.org/zap"
)

// ActivityService 好友动态流。写入是完成路径的旁路，
// 在独立 goroutine 里落库，失败只记日志。
type ActivityService struct {
	activities *repository.ActivityRepository
	friends    *repository.FriendshipRepository
	users      *repository.UserRepository
}

func NewActivityService(activities *repository.ActivityRepository, friends *repository.FriendshipRepository, users *repository.UserRepository) *ActivityService {
	return &ActivityService{activities: activities, friends: friends, users: users}
}

// TaskCompleted 实现 CompletionNotifier
func (s *ActivityService) TaskCompleted(userID uint, goal *model.Goal, task *model.Task, progressPercent int) {
	go func() {
		user, err := s.users.FindByID(userID)
		if err != nil {
			logger.Log.Warn("activity emit: load user failed", zap.Uint("userId", userID), zap.Error(err))
			return
		}
		if !user.ShowInActivityFeed {
			return
		}
		activity := &model.Activity{
			UserID:          userID,
			GoalID:          goal.ID,
			Type:            model.ActivityCompleted,
			Message:         fmt.Sprintf("%s completed Day %d: %s", user.Name, task.DayNumber, task.Title),
			TaskTitle:       task.Title,
			SkillName:       goal.Title,
			ProgressPercent: progressPercent,
			IsPublic:        true,
		}
		if err := s.activities.Create(activity); err != nil {
			logger.Log.Warn("activity emit failed", zap.Uint("userId", userID), zap.Error(err))
		}
	}()
}

// Feed 自己加好友的最近动态，倒序分页
func (s *ActivityService) Feed(userID uint, limit, offset int) ([]model.Activity, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	friendIDs, err := s.friends.GetFriendIDsCached(userID)
	if err != nil {
		return nil, err
	}
	userIDs := append(friendIDs, userID)
	return s.activities.FindRecentCached(userID, userIDs, limit, offset)
}

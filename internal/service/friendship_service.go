package service

import (
	"errors"

	"flowgoals_backend/internal/model"
	"flowgoals_backend/internal/repository"
	"flowgoals_backend/internal/util"

	"gorm.io/gorm"
)

// FriendshipService 好友关系与社区成员
type FriendshipService struct {
	friends *repository.FriendshipRepository
	users   *repository.UserRepository
	goals   *repository.GoalRepository
	tasks   *repository.TaskRepository
}

func NewFriendshipService(friends *repository.FriendshipRepository, users *repository.UserRepository, goals *repository.GoalRepository, tasks *repository.TaskRepository) *FriendshipService {
	return &FriendshipService{friends: friends, users: users, goals: goals, tasks: tasks}
}

// SendRequest 发好友申请。对方已先申请过自己时直接成为好友
func (s *FriendshipService) SendRequest(senderID, receiverID uint) (accepted bool, err error) {
	if senderID == receiverID {
		return false, util.ErrSelfInvite
	}
	if _, err := s.users.FindByID(receiverID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, util.ErrUserNotFound
		}
		return false, err
	}
	already, err := s.friends.IsFriend(senderID, receiverID)
	if err != nil {
		return false, err
	}
	if already {
		return true, nil
	}

	// 反向申请存在则互相接受
	if reverse, err := s.friends.GetPendingRequestBetween(receiverID, senderID); err == nil && reverse != nil {
		if err := s.acceptRequest(reverse); err != nil {
			return false, err
		}
		return true, nil
	}

	if existing, err := s.friends.GetPendingRequestBetween(senderID, receiverID); err == nil && existing != nil {
		return false, nil // 已有申请，幂等
	}

	req := &model.FriendRequest{SenderID: senderID, ReceiverID: receiverID, Status: model.RequestPending}
	return false, s.friends.CreateRequest(req)
}

func (s *FriendshipService) acceptRequest(req *model.FriendRequest) error {
	if err := s.friends.UpdateRequestStatus(req.ID, model.RequestAccepted); err != nil {
		return err
	}
	return s.friends.CreateFriendship(&model.Friendship{UserID: req.SenderID, FriendID: req.ReceiverID})
}

// AcceptRequest 接受来自 fromUserID 的申请
func (s *FriendshipService) AcceptRequest(userID, fromUserID uint) error {
	req, err := s.friends.GetPendingRequestBetween(fromUserID, userID)
	if err != nil || req == nil {
		return util.ErrUserNotFound
	}
	return s.acceptRequest(req)
}

// RejectRequest 拒绝来自 fromUserID 的申请
func (s *FriendshipService) RejectRequest(userID, fromUserID uint) error {
	req, err := s.friends.GetPendingRequestBetween(fromUserID, userID)
	if err != nil || req == nil {
		return util.ErrUserNotFound
	}
	return s.friends.UpdateRequestStatus(req.ID, model.RequestRejected)
}

// Unfriend 解除双向好友关系
func (s *FriendshipService) Unfriend(userID, friendID uint) error {
	return s.friends.DeleteFriendship(userID, friendID)
}

// MemberSummary 好友/社区列表项，带当前学习状态
type MemberSummary struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	Picture      string `json:"picture"`
	CurrentSkill string `json:"currentSkill,omitempty"`
	CurrentDay   int    `json:"currentDay,omitempty"`
	TotalDays    int    `json:"totalDays,omitempty"`
	Progress     int    `json:"progress"`
	IsFriend     bool   `json:"isFriend"`
}

// Friends 好友列表，附当前激活目标的进度
func (s *FriendshipService) Friends(userID uint) ([]MemberSummary, error) {
	friends, err := s.friends.GetFriends(userID)
	if err != nil {
		return nil, err
	}
	result := make([]MemberSummary, 0, len(friends))
	for _, f := range friends {
		summary, err := s.memberSummary(&f, true)
		if err != nil {
			return nil, err
		}
		result = append(result, summary)
	}
	return result, nil
}

// CommunityMembers 开启了动态可见的其他用户
func (s *FriendshipService) CommunityMembers(userID uint) ([]MemberSummary, error) {
	members, err := s.users.FindVisibleMembers(userID)
	if err != nil {
		return nil, err
	}
	friendIDs, err := s.friends.GetFriendIDsCached(userID)
	if err != nil {
		return nil, err
	}
	friendSet := make(map[uint]struct{}, len(friendIDs))
	for _, id := range friendIDs {
		friendSet[id] = struct{}{}
	}

	result := make([]MemberSummary, 0, len(members))
	for _, m := range members {
		_, isFriend := friendSet[m.ID]
		summary, err := s.memberSummary(&m, isFriend)
		if err != nil {
			return nil, err
		}
		result = append(result, summary)
	}
	return result, nil
}

func (s *FriendshipService) memberSummary(user *model.User, isFriend bool) (MemberSummary, error) {
	summary := MemberSummary{
		ID:       user.ID,
		Name:     user.Name,
		Picture:  user.Picture,
		IsFriend: isFriend,
	}
	goal, err := s.goals.FindActiveByUserID(user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return summary, nil
		}
		return summary, err
	}
	percent, err := NewProgressTracker(s.tasks).Percent(goal.ID)
	if err != nil {
		return summary, err
	}
	summary.CurrentSkill = goal.Title
	summary.CurrentDay = goal.CurrentDay
	summary.TotalDays = goal.TotalDays
	summary.Progress = percent
	return summary, nil
}

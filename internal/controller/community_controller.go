package controller

import (
	"strconv"

	"flowgoals_backend/internal/service"
	"flowgoals_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// CommunityController 处理好友与动态流相关的API请求
type CommunityController struct {
	FriendshipService *service.FriendshipService
	ActivityService   *service.ActivityService
}

func NewCommunityController(friendshipService *service.FriendshipService, activityService *service.ActivityService) *CommunityController {
	return &CommunityController{FriendshipService: friendshipService, ActivityService: activityService}
}

// Friends godoc
// @Summary 好友列表
// @Description 好友及其当前学习进度
// @Tags 社区
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]service.MemberSummary} "成功"
// @Failure 401 {object} util.Response "未授权"
// @Router /api/community/friends [get]
func (c *CommunityController) Friends(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	friends, err := c.FriendshipService.Friends(user.UserID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"friends": friends})
}

// Members godoc
// @Summary 社区成员
// @Description 开启了动态可见的其他用户
// @Tags 社区
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]service.MemberSummary} "成功"
// @Failure 401 {object} util.Response "未授权"
// @Router /api/community/members [get]
func (c *CommunityController) Members(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	members, err := c.FriendshipService.CommunityMembers(user.UserID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"members": members})
}

// SendFriendRequest godoc
// @Summary 发送好友申请
// @Description 对方已先申请过时直接互相成为好友
// @Tags 社区
// @Produce json
// @Security BearerAuth
// @Param id path int true "用户ID"
// @Success 200 {object} util.Response{data=map[string]interface{}} "成功"
// @Failure 400 {object} util.Response "不能添加自己"
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/community/friend-requests/{id} [post]
func (c *CommunityController) SendFriendRequest(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	targetID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	accepted, err := c.FriendshipService.SendRequest(user.UserID, targetID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"accepted": accepted})
}

// AcceptFriend godoc
// @Summary 接受好友申请
// @Tags 社区
// @Produce json
// @Security BearerAuth
// @Param id path int true "申请方用户ID"
// @Success 200 {object} util.Response "成功"
// @Failure 404 {object} util.Response "申请不存在"
// @Router /api/community/friend-requests/{id}/accept [post]
func (c *CommunityController) AcceptFriend(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	fromID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	if err := c.FriendshipService.AcceptRequest(user.UserID, fromID); err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// RejectFriend godoc
// @Summary 拒绝好友申请
// @Tags 社区
// @Produce json
// @Security BearerAuth
// @Param id path int true "申请方用户ID"
// @Success 200 {object} util.Response "成功"
// @Failure 404 {object} util.Response "申请不存在"
// @Router /api/community/friend-requests/{id}/reject [post]
func (c *CommunityController) RejectFriend(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	fromID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	if err := c.FriendshipService.RejectRequest(user.UserID, fromID); err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// Unfriend godoc
// @Summary 解除好友关系
// @Tags 社区
// @Produce json
// @Security BearerAuth
// @Param id path int true "好友用户ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/community/friends/{id} [delete]
func (c *CommunityController) Unfriend(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	friendID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	if err := c.FriendshipService.Unfriend(user.UserID, friendID); err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// ActivityFeed godoc
// @Summary 好友动态流
// @Description 自己和好友最近完成任务的动态，倒序分页
// @Tags 社区
// @Produce json
// @Security BearerAuth
// @Param limit query int false "每页数量，默认20"
// @Param offset query int false "偏移量"
// @Success 200 {object} util.Response{data=[]model.Activity} "成功"
// @Failure 401 {object} util.Response "未授权"
// @Router /api/community/feed [get]
func (c *CommunityController) ActivityFeed(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(ctx.DefaultQuery("offset", "0"))

	feed, err := c.ActivityService.Feed(user.UserID, limit, offset)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"activities": feed})
}

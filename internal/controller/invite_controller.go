package controller

import (
	"flowgoals_backend/internal/service"
	"flowgoals_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// InviteController 处理共享目标邀请相关的API请求
type InviteController struct {
	SharedGoalService *service.SharedGoalService
}

func NewInviteController(sharedGoalService *service.SharedGoalService) *InviteController {
	return &InviteController{SharedGoalService: sharedGoalService}
}

// CreateInviteRequest 邀请请求模型
// swagger:model CreateInviteRequest
type CreateInviteRequest struct {
	ReceiverID uint `json:"receiverId" binding:"required"`
}

// CreateInvite godoc
// @Summary 邀请好友共同挑战
// @Description 以自己的目标为草稿向其他用户发出共享目标邀请
// @Tags 共享目标
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "目标ID"
// @Param request body CreateInviteRequest true "邀请请求"
// @Success 201 {object} util.Response{data=model.GoalInvite} "创建成功"
// @Failure 400 {object} util.Response "不能邀请自己"
// @Failure 404 {object} util.Response "目标或用户不存在"
// @Failure 409 {object} util.Response "已有待处理邀请"
// @Router /api/goals/{id}/invite [post]
func (c *InviteController) CreateInvite(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	goalID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var request CreateInviteRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	invite, err := c.SharedGoalService.CreateInvite(user.UserID, goalID, request.ReceiverID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Created(ctx, gin.H{"invite": invite})
}

// PendingInvites godoc
// @Summary 待处理邀请列表
// @Tags 共享目标
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.GoalInvite} "成功"
// @Failure 401 {object} util.Response "未授权"
// @Router /api/invites [get]
func (c *InviteController) PendingInvites(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	invites, err := c.SharedGoalService.PendingInvites(user.UserID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"invites": invites})
}

// AcceptInvite godoc
// @Summary 接受共享目标邀请
// @Description 复制发起方的逐天主题创建自己的目标，并与对方目标互相链接
// @Tags 共享目标
// @Produce json
// @Security BearerAuth
// @Param inviteId path string true "邀请ID"
// @Success 201 {object} util.Response{data=model.Goal} "创建成功"
// @Failure 404 {object} util.Response "邀请不存在"
// @Failure 409 {object} util.Response "邀请已处理"
// @Router /api/goals/accept-invite/{inviteId} [post]
func (c *InviteController) AcceptInvite(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	goal, err := c.SharedGoalService.AcceptInvite(user.UserID, ctx.Param("inviteId"))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Created(ctx, gin.H{"goal": goal})
}

// DeclineInvite godoc
// @Summary 拒绝共享目标邀请
// @Tags 共享目标
// @Produce json
// @Security BearerAuth
// @Param inviteId path string true "邀请ID"
// @Success 200 {object} util.Response "成功"
// @Failure 404 {object} util.Response "邀请不存在"
// @Failure 409 {object} util.Response "邀请已处理"
// @Router /api/goals/decline-invite/{inviteId} [delete]
func (c *InviteController) DeclineInvite(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	if err := c.SharedGoalService.DeclineInvite(user.UserID, ctx.Param("inviteId")); err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// PartnerProgress godoc
// @Summary 伙伴进度
// @Description 查看共享目标中对方的完整任务序列和进度，只读
// @Tags 共享目标
// @Produce json
// @Security BearerAuth
// @Param id path int true "目标ID"
// @Success 200 {object} util.Response{data=service.PartnerProgress} "成功"
// @Failure 404 {object} util.Response "目标不存在或没有伙伴"
// @Router /api/goals/{id}/partner-progress [get]
func (c *InviteController) PartnerProgress(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	goalID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	progress, err := c.SharedGoalService.GetPartnerProgress(user.UserID, goalID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, progress)
}

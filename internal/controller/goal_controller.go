package controller

import (
	"strconv"

	"flowgoals_backend/internal/model"
	"flowgoals_backend/internal/service"
	"flowgoals_backend/internal/util"
	"flowgoals_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GoalController 处理目标相关的API请求
type GoalController struct {
	GoalService      *service.GoalService
	SchedulerService *service.SchedulerService
	UserService      *service.UserService
}

func NewGoalController(goalService *service.GoalService, schedulerService *service.SchedulerService, userService *service.UserService) *GoalController {
	return &GoalController{
		GoalService:      goalService,
		SchedulerService: schedulerService,
		UserService:      userService,
	}
}

// CreateGoalRequest 创建目标请求模型
// swagger:model CreateGoalRequest
type CreateGoalRequest struct {
	Type         string `json:"type" binding:"required,oneof=learning project health exam habit"`
	Title        string `json:"title" binding:"required,max=255"`
	Description  string `json:"description"`
	TotalDays    int    `json:"totalDays" binding:"required,min=1,max=365"`
	DailyMinutes int    `json:"dailyMinutes" binding:"required,min=5,max=480"`
}

func (r CreateGoalRequest) draft() service.GoalDraft {
	return service.GoalDraft{
		Type:         model.GoalType(r.Type),
		Title:        r.Title,
		Description:  r.Description,
		TotalDays:    r.TotalDays,
		DailyMinutes: r.DailyMinutes,
	}
}

// CheckTimeline godoc
// @Summary 校验目标天数
// @Description 判断目标天数是否过于仓促并给出建议
// @Tags 目标管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateGoalRequest true "目标草稿"
// @Success 200 {object} util.Response{data=service.TimelineCheck} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /api/goals/check-timeline [post]
func (c *GoalController) CheckTimeline(ctx *gin.Context) {
	var request CreateGoalRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	draft := request.draft()
	util.Success(ctx, service.CheckTimeline(draft.Type, draft.TotalDays))
}

// CreateGoal godoc
// @Summary 创建目标
// @Description 生成逐天学习计划并创建目标，同时停用之前的激活目标
// @Tags 目标管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateGoalRequest true "创建目标请求"
// @Success 201 {object} util.Response{data=map[string]interface{}} "创建成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 401 {object} util.Response "未授权"
// @Failure 500 {object} util.Response "服务器内部错误"
// @Router /api/goals [post]
func (c *GoalController) CreateGoal(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var request CreateGoalRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	goal, tasks, err := c.GoalService.CreateGoal(user.UserID, request.draft())
	if err != nil {
		handleServiceError(ctx, err)
		return
	}

	if err := c.UserService.CompleteOnboarding(user.UserID); err != nil {
		// 目标已创建成功，标志位失败只记日志
		logger.Log.Warn("complete onboarding failed", zap.Uint("userId", user.UserID), zap.Error(err))
	}

	util.Created(ctx, gin.H{
		"goal":      goal,
		"taskCount": len(tasks),
	})
}

// ListGoals godoc
// @Summary 目标列表
// @Description 当前用户的全部目标，附实时进度
// @Tags 目标管理
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]service.GoalWithProgress} "成功"
// @Failure 401 {object} util.Response "未授权"
// @Router /api/goals [get]
func (c *GoalController) ListGoals(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	goals, err := c.GoalService.ListGoals(user.UserID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"goals": goals})
}

// ActiveGoal godoc
// @Summary 当前激活目标
// @Description 返回当前激活目标的概要信息
// @Tags 目标管理
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=model.GoalSummary} "成功"
// @Failure 404 {object} util.Response "没有激活目标"
// @Router /api/goals/active [get]
func (c *GoalController) ActiveGoal(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	summary, err := c.GoalService.ActiveGoal(user.UserID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"goal": summary})
}

// GetGoal godoc
// @Summary 目标详情
// @Tags 目标管理
// @Produce json
// @Security BearerAuth
// @Param id path int true "目标ID"
// @Success 200 {object} util.Response{data=model.Goal} "成功"
// @Failure 404 {object} util.Response "目标不存在"
// @Router /api/goals/{id} [get]
func (c *GoalController) GetGoal(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	goalID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	goal, err := c.GoalService.GetGoal(user.UserID, goalID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"goal": goal})
}

// DeleteGoal godoc
// @Summary 删除目标
// @Description 删除目标及其全部任务
// @Tags 目标管理
// @Produce json
// @Security BearerAuth
// @Param id path int true "目标ID"
// @Success 200 {object} util.Response "成功"
// @Failure 404 {object} util.Response "目标不存在"
// @Router /api/goals/{id} [delete]
func (c *GoalController) DeleteGoal(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	goalID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	if err := c.GoalService.DeleteGoal(user.UserID, goalID); err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// GoalRoadmap godoc
// @Summary 目标路线图
// @Description 目标的全部任务，按天序排列
// @Tags 目标管理
// @Produce json
// @Security BearerAuth
// @Param goalId path int true "目标ID"
// @Success 200 {object} util.Response{data=map[string]interface{}} "成功"
// @Failure 404 {object} util.Response "目标不存在"
// @Router /api/tasks/all/{goalId} [get]
func (c *GoalController) GoalRoadmap(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	goalID, ok := parseIDParam(ctx, "goalId")
	if !ok {
		return
	}
	tasks, summary, err := c.SchedulerService.AllTasks(user.UserID, goalID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{
		"goal":  summary,
		"tasks": tasks,
	})
}

// GoalHistory godoc
// @Summary 任务历史
// @Description 目标下已完成和已跳过的任务，按处理时间倒序
// @Tags 目标管理
// @Produce json
// @Security BearerAuth
// @Param id path int true "目标ID"
// @Success 200 {object} util.Response{data=map[string]interface{}} "成功"
// @Failure 404 {object} util.Response "目标不存在"
// @Router /api/goals/{id}/history [get]
func (c *GoalController) GoalHistory(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	goalID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	history, err := c.SchedulerService.TaskHistory(user.UserID, goalID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"tasks": history})
}

func parseIDParam(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil {
		util.BadRequest(ctx, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

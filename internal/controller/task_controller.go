package controller

import (
	"strconv"

	"flowgoals_backend/internal/service"
	"flowgoals_backend/internal/util"
	"flowgoals_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

// TaskController 处理任务调度相关的API请求
type TaskController struct {
	SchedulerService *service.SchedulerService
}

func NewTaskController(schedulerService *service.SchedulerService) *TaskController {
	return &TaskController{SchedulerService: schedulerService}
}

// TodayTask godoc
// @Summary 今日任务
// @Description 当前激活目标中 DayNumber 最小的待办任务；全部完成时返回完成标志
// @Tags 任务调度
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.TodayResult} "成功"
// @Failure 401 {object} util.Response "未授权"
// @Failure 404 {object} util.Response "没有激活目标"
// @Router /api/tasks/today [get]
func (c *TaskController) TodayTask(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	result, err := c.SchedulerService.TodayTaskForActiveGoal(user.UserID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// TodayTaskForGoal godoc
// @Summary 指定目标的今日任务
// @Tags 任务调度
// @Produce json
// @Security BearerAuth
// @Param id path int true "目标ID"
// @Success 200 {object} util.Response{data=service.TodayResult} "成功"
// @Failure 404 {object} util.Response "目标不存在"
// @Router /api/goals/{id}/today [get]
func (c *TaskController) TodayTaskForGoal(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	goalID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	result, err := c.SchedulerService.TodayTask(user.UserID, goalID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// CompleteTask godoc
// @Summary 完成任务
// @Description 所有子项勾选后标记任务完成并推进目标计数。重复提交返回 409。
// @Tags 任务调度
// @Produce json
// @Security BearerAuth
// @Param id path int true "任务ID"
// @Success 200 {object} util.Response{data=service.TodayResult} "成功"
// @Failure 404 {object} util.Response "任务不存在"
// @Failure 409 {object} util.Response "任务已处理或子项未完成"
// @Router /api/tasks/{id}/complete [patch]
func (c *TaskController) CompleteTask(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	taskID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	result, err := c.SchedulerService.CompleteTask(user.UserID, taskID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	monitoring.TaskCompletions.Inc()
	util.Success(ctx, result)
}

// SkipTask godoc
// @Summary 跳过任务
// @Description 跳过今日任务，后续排期整体顺延一天，同主题任务排到队尾
// @Tags 任务调度
// @Produce json
// @Security BearerAuth
// @Param id path int true "任务ID"
// @Success 200 {object} util.Response{data=service.TodayResult} "成功"
// @Failure 404 {object} util.Response "任务不存在"
// @Failure 409 {object} util.Response "任务已处理"
// @Router /api/tasks/{id}/skip [patch]
func (c *TaskController) SkipTask(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	taskID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	result, err := c.SchedulerService.SkipTask(user.UserID, taskID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	monitoring.TaskSkips.Inc()
	util.Success(ctx, result)
}

// UpdateActionItemRequest 子项更新请求模型
// swagger:model UpdateActionItemRequest
type UpdateActionItemRequest struct {
	Completed *bool `json:"completed" binding:"required"`
}

// UpdateActionItem godoc
// @Summary 勾选任务子项
// @Description 更新单个子项的完成状态，不触发任务状态变化
// @Tags 任务调度
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "任务ID"
// @Param index path int true "子项下标"
// @Param request body UpdateActionItemRequest true "子项更新请求"
// @Success 200 {object} util.Response{data=model.Task} "成功"
// @Failure 404 {object} util.Response "任务不存在或下标越界"
// @Router /api/tasks/{id}/action-item/{index} [patch]
func (c *TaskController) UpdateActionItem(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	taskID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	index, err := strconv.Atoi(ctx.Param("index"))
	if err != nil || index < 0 {
		util.NotFound(ctx)
		return
	}
	var request UpdateActionItemRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	task, err := c.SchedulerService.UpdateActionItem(user.UserID, taskID, index, *request.Completed)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"task": task})
}

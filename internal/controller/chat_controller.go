package controller

import (
	"flowgoals_backend/internal/service"
	"flowgoals_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// ChatController 处理学习助手对话的API请求
type ChatController struct {
	AIChatService *service.AIChatService
}

func NewChatController(aiChatService *service.AIChatService) *ChatController {
	return &ChatController{AIChatService: aiChatService}
}

// StudyChat godoc
// @Summary 学习助手对话
// @Description 带当日任务上下文的 AI 对话，使用用户自己保存的 API Key
// @Tags 学习助手
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.ChatRequest true "对话请求"
// @Success 200 {object} util.Response{data=map[string]interface{}} "成功"
// @Failure 400 {object} util.Response "未配置 API Key"
// @Failure 500 {object} util.Response "上游服务错误"
// @Router /api/chat/study [post]
func (c *ChatController) StudyChat(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	var request service.ChatRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	reply, err := c.AIChatService.Chat(user.UserID, request)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"reply": reply})
}

package controller

import (
	"flowgoals_backend/internal/service"
	"flowgoals_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// AuthController 处理认证相关的API请求
type AuthController struct {
	AuthService *service.AuthService
}

func NewAuthController(authService *service.AuthService) *AuthController {
	return &AuthController{AuthService: authService}
}

// GoogleLoginRequest Google 登录请求模型
// swagger:model GoogleLoginRequest
type GoogleLoginRequest struct {
	IDToken string `json:"idToken" binding:"required"`
}

// GoogleLogin godoc
// @Summary Google 登录
// @Description 校验 Google ID token，首次登录自动注册并返回 JWT
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body GoogleLoginRequest true "登录请求"
// @Success 200 {object} util.Response{data=service.LoginResult} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 401 {object} util.Response "token 无效"
// @Router /api/auth/google [post]
func (c *AuthController) GoogleLogin(ctx *gin.Context) {
	var request GoogleLoginRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.AuthService.LoginWithGoogle(ctx.Request.Context(), request.IDToken)
	if err != nil {
		util.Unauthorized(ctx)
		return
	}
	util.Success(ctx, result)
}

// Me godoc
// @Summary 当前登录用户
// @Description 根据 JWT 返回当前用户信息
// @Tags 认证
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=model.User} "成功"
// @Failure 401 {object} util.Response "未授权"
// @Router /api/auth/me [get]
func (c *AuthController) Me(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	util.Success(ctx, gin.H{
		"id":    claims.UserID,
		"email": claims.Email,
		"name":  claims.Name,
	})
}

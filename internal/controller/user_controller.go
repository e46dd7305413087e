package controller

import (
	"path/filepath"
	"strings"

	"flowgoals_backend/internal/service"
	"flowgoals_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// UserController 处理用户资料与设置相关的API请求
type UserController struct {
	UserService    *service.UserService
	StorageService *service.StorageService
}

func NewUserController(userService *service.UserService, storageService *service.StorageService) *UserController {
	return &UserController{UserService: userService, StorageService: storageService}
}

// Profile godoc
// @Summary 个人资料
// @Description 自己的资料页：好友、待处理申请、累计完成数
// @Tags 用户
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.Profile} "成功"
// @Failure 401 {object} util.Response "未授权"
// @Router /api/users/me [get]
func (c *UserController) Profile(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	profile, err := c.UserService.Profile(user.UserID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, profile)
}

// UpdateSettings godoc
// @Summary 更新设置
// @Description 局部更新用户设置，未提交的字段保持不变
// @Tags 用户
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.SettingsUpdate true "设置更新请求"
// @Success 200 {object} util.Response{data=model.User} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /api/users/me/settings [patch]
func (c *UserController) UpdateSettings(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	var request service.SettingsUpdate
	if err := ctx.ShouldBindJSON(&request); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	updated, err := c.UserService.UpdateSettings(user.UserID, request)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"user": updated})
}

const maxAvatarSize = 5 << 20 // 5MB

var allowedAvatarExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true,
}

// UploadAvatar godoc
// @Summary 上传头像
// @Tags 用户
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param avatar formData file true "头像文件"
// @Success 200 {object} util.Response{data=map[string]interface{}} "成功"
// @Failure 400 {object} util.Response "文件格式或大小不合法"
// @Router /api/users/me/avatar [post]
func (c *UserController) UploadAvatar(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	file, err := ctx.FormFile("avatar")
	if err != nil {
		util.BadRequest(ctx, "avatar file is required")
		return
	}
	if file.Size > maxAvatarSize {
		util.BadRequest(ctx, "avatar exceeds 5MB limit")
		return
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedAvatarExts[ext] {
		util.BadRequest(ctx, "unsupported image format")
		return
	}

	src, err := file.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer src.Close()

	avatarURL, err := c.StorageService.UploadAvatar(ctx.Request.Context(), user.UserID, ext, src, file.Size, file.Header.Get("Content-Type"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	if err := c.UserService.UpdatePicture(user.UserID, avatarURL); err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"picture": avatarURL})
}

// PublicProfile godoc
// @Summary 查看他人资料
// @Description 其他用户的公开资料页，对方隐藏后返回 404
// @Tags 用户
// @Produce json
// @Security BearerAuth
// @Param id path int true "用户ID"
// @Success 200 {object} util.Response{data=service.PublicProfile} "成功"
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/users/{id} [get]
func (c *UserController) PublicProfile(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	targetID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	profile, err := c.UserService.GetPublicProfile(user.UserID, targetID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, profile)
}

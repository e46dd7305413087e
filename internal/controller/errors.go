package controller

import (
	"errors"

	"flowgoals_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// handleServiceError 领域错误到 HTTP 状态码的唯一映射。
// 资源不存在和归属不符都折叠成 404，不向调用方泄露资源是否存在。
func handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrUserNotFound),
		errors.Is(err, util.ErrGoalNotFound),
		errors.Is(err, util.ErrTaskNotFound),
		errors.Is(err, util.ErrInviteNotFound),
		errors.Is(err, util.ErrNoActiveGoal),
		errors.Is(err, util.ErrActionItemIndex),
		errors.Is(err, util.ErrNoPartner):
		util.NotFound(c)
	case errors.Is(err, util.ErrTaskNotPending),
		errors.Is(err, util.ErrActionItemsIncomplete),
		errors.Is(err, util.ErrInviteResolved),
		errors.Is(err, util.ErrDuplicateInvite):
		util.Conflict(c, err.Error())
	case errors.Is(err, util.ErrSelfInvite),
		errors.Is(err, util.ErrNoAPIKey):
		util.BadRequest(c, err.Error())
	default:
		util.LogInternalError(c, err)
	}
}

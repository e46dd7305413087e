package app

import (
	"flowgoals_backend/docs"
	"flowgoals_backend/internal/config"
	"flowgoals_backend/internal/middleware"
	"flowgoals_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公共路由
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/auth/google", c.auth.GoogleLogin)
	}

	// 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		authGroup.GET("/auth/me", c.auth.Me)

		// 目标
		goals := authGroup.Group("/goals")
		{
			goals.POST("", c.goal.CreateGoal)
			goals.GET("", c.goal.ListGoals)
			goals.POST("/check-timeline", c.goal.CheckTimeline)
			goals.GET("/active", c.goal.ActiveGoal)
			goals.GET("/:id", c.goal.GetGoal)
			goals.DELETE("/:id", c.goal.DeleteGoal)
			goals.GET("/:id/history", c.goal.GoalHistory)
			goals.GET("/:id/today", c.task.TodayTaskForGoal)
			goals.GET("/:id/partner-progress", c.invite.PartnerProgress)
			goals.POST("/:id/invite", c.invite.CreateInvite)
			goals.POST("/accept-invite/:inviteId", c.invite.AcceptInvite)
			goals.DELETE("/decline-invite/:inviteId", c.invite.DeclineInvite)
		}

		// 任务调度
		tasks := authGroup.Group("/tasks")
		{
			tasks.GET("/today", c.task.TodayTask)
			tasks.GET("/all/:goalId", c.goal.GoalRoadmap)
			tasks.PATCH("/:id/complete", c.task.CompleteTask)
			tasks.PATCH("/:id/skip", c.task.SkipTask)
			tasks.PATCH("/:id/action-item/:index", c.task.UpdateActionItem)
		}

		// 共享目标邀请
		invites := authGroup.Group("/invites")
		{
			invites.GET("", c.invite.PendingInvites)
		}

		// 用户
		users := authGroup.Group("/users")
		{
			users.GET("/me", c.user.Profile)
			users.PATCH("/me/settings", c.user.UpdateSettings)
			users.POST("/me/avatar", c.user.UploadAvatar)
			users.GET("/:id", c.user.PublicProfile)
		}

		// 社区
		community := authGroup.Group("/community")
		{
			community.GET("/feed", c.community.ActivityFeed)
			community.GET("/friends", c.community.Friends)
			community.GET("/members", c.community.Members)
			community.POST("/friend-requests/:id", c.community.SendFriendRequest)
			community.POST("/friend-requests/:id/accept", c.community.AcceptFriend)
			community.POST("/friend-requests/:id/reject", c.community.RejectFriend)
			community.DELETE("/friends/:id", c.community.Unfriend)
		}

		// 学习助手
		authGroup.POST("/chat/study", c.chat.StudyChat)
	}
}

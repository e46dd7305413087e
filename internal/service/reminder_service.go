package service

import (
	"context"
	"fmt"
	"time"

	"flowgoals_backend/internal/config"
	"flowgoals_backend/internal/model"
	"flowgoals_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// ReminderNotifier 提醒投递通道。邮件/推送接入前先落日志。
type ReminderNotifier interface {
	Notify(user *model.User, goal *model.Goal, task *model.Task) error
}

// LogNotifier 把提醒写进结构化日志
type LogNotifier struct{}

func (LogNotifier) Notify(user *model.User, goal *model.Goal, task *model.Task) error {
	logger.Log.Info("daily reminder",
		zap.Uint("userId", user.ID),
		zap.String("goal", goal.Title),
		zap.String("task", task.Title),
		zap.Int("dayNumber", task.DayNumber))
	return nil
}

// ReminderUserSource 提醒候选用户的来源（开启了提醒的用户）
type ReminderUserSource interface {
	FindReminderCandidates() ([]model.User, error)
}

// ReminderDeduper 每人每天只提醒一次的去重写入，生产实现是 *redis.Client
type ReminderDeduper interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// ReminderService 每晚按用户本地时间发送当日任务提醒。
// 每小时扫一遍候选用户，redis SETNX 保证每人每天最多提醒一次。
type ReminderService struct {
	users    ReminderUserSource
	goals    GoalStore
	tasks    TaskStore
	dedup    ReminderDeduper
	notifier ReminderNotifier
	config   config.ReminderConfig
	now      func() time.Time
}

func NewReminderService(users ReminderUserSource, goals GoalStore, tasks TaskStore, dedup ReminderDeduper, cfg config.ReminderConfig) *ReminderService {
	return &ReminderService{
		users:    users,
		goals:    goals,
		tasks:    tasks,
		dedup:    dedup,
		notifier: LogNotifier{},
		config:   cfg,
		now:      time.Now,
	}
}

// Start 启动小时级轮询，ctx 取消后退出
func (s *ReminderService) Start(ctx context.Context) {
	if !s.config.Enabled {
		logger.Log.Info("daily reminders disabled")
		return
	}
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.SendDueReminders(ctx)
			}
		}
	}()
}

// SendDueReminders 给本地时间到达提醒时刻的用户发送提醒
func (s *ReminderService) SendDueReminders(ctx context.Context) {
	users, err := s.users.FindReminderCandidates()
	if err != nil {
		logger.Log.Error("reminder scan failed", zap.Error(err))
		return
	}

	sent := 0
	for i := range users {
		user := &users[i]
		if s.sendIfDue(ctx, user) {
			sent++
		}
	}
	if sent > 0 {
		logger.Log.Info("daily reminders sent", zap.Int("count", sent))
	}
}

func (s *ReminderService) sendIfDue(ctx context.Context, user *model.User) bool {
	loc, err := time.LoadLocation(user.Timezone)
	if err != nil {
		loc = time.UTC
	}
	local := s.now().In(loc)
	if local.Hour() != s.config.Hour {
		return false
	}

	// 按用户本地日期去重
	key := fmt.Sprintf("reminder:sent:%d:%s", user.ID, local.Format("2006-01-02"))
	ok, err := s.dedup.SetNX(ctx, key, 1, 26*time.Hour).Result()
	if err != nil {
		logger.Log.Warn("reminder dedup failed", zap.Uint("userId", user.ID), zap.Error(err))
		return false
	}
	if !ok {
		return false
	}

	goal, err := s.goals.FindActiveByUserID(user.ID)
	if err != nil {
		return false
	}
	// 没有 pending 任务说明今天已处理完，不打扰
	task, err := s.tasks.FirstPendingByGoalID(goal.ID)
	if err != nil {
		return false
	}

	if err := s.notifier.Notify(user, goal, task); err != nil {
		logger.Log.Warn("reminder delivery failed", zap.Uint("userId", user.ID), zap.Error(err))
		return false
	}
	return true
}

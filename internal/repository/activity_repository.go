package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"flowgoals_backend/internal/model"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

const feedCacheTTL = 30 * time.Second

// ActivityRepository 动态日志的追加与读取，读取侧带短 TTL 缓存

type ActivityRepository struct {
	DB    *gorm.DB
	Redis *redis.Client
	ctx   context.Context
}

func NewActivityRepository(db *gorm.DB, rdb *redis.Client) *ActivityRepository {
	return &ActivityRepository{
		DB:    db,
		Redis: rdb,
		ctx:   context.Background(),
	}
}

func (r *ActivityRepository) Create(activity *model.Activity) error {
	return r.DB.Create(activity).Error
}

func (r *ActivityRepository) FindRecentByUserIDs(userIDs []uint, limit, offset int) ([]model.Activity, error) {
	var activities []model.Activity
	if len(userIDs) == 0 {
		return activities, nil
	}
	err := r.DB.Preload("User").
		Where("user_id IN ? AND is_public = ?", userIDs, true).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&activities).Error
	return activities, err
}

// FindRecentCached 首页动态流。缓存不做主动失效，TTL 很短，
// 新动态最多延迟 30 秒出现。
func (r *ActivityRepository) FindRecentCached(viewerID uint, userIDs []uint, limit, offset int) ([]model.Activity, error) {
	if r.Redis == nil || offset > 0 {
		return r.FindRecentByUserIDs(userIDs, limit, offset)
	}

	key := fmt.Sprintf("feed:recent:%d:%d", viewerID, limit)
	cached, err := r.Redis.Get(r.ctx, key).Bytes()
	if err == nil {
		var activities []model.Activity
		if json.Unmarshal(cached, &activities) == nil {
			return activities, nil
		}
	}

	activities, err := r.FindRecentByUserIDs(userIDs, limit, offset)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(activities); err == nil {
		r.Redis.Set(r.ctx, key, data, feedCacheTTL)
	}
	return activities, nil
}

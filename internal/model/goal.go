package model

// GoalType 目标类型
type GoalType string

const (
	GoalLearning GoalType = "learning"
	GoalProject  GoalType = "project"
	GoalHealth   GoalType = "health"
	GoalExam     GoalType = "exam"
	GoalHabit    GoalType = "habit"
)

// Goal 用户的多天技能养成目标
// swagger:model Goal
type Goal struct {
	BaseModel
	UserID      uint     `gorm:"index;type:bigint unsigned;not null" json:"userId"`
	Type        GoalType `gorm:"type:enum('learning','project','health','exam','habit');default:'learning'" json:"type"`
	Title       string   `gorm:"size:255;not null" json:"title"`
	Description string   `gorm:"type:text" json:"description"`

	TotalDays    int `gorm:"not null" json:"totalDays"`
	DailyMinutes int `gorm:"not null" json:"dailyMinutes"`

	// 计数器只由调度器的 complete/skip 路径写入
	CompletedDays int `gorm:"default:0" json:"completedDays"`
	SkippedDays   int `gorm:"default:0" json:"skippedDays"`
	CurrentDay    int `gorm:"default:1" json:"currentDay"`

	IsActive    bool `gorm:"default:true" json:"isActive"`
	IsCompleted bool `gorm:"default:false" json:"isCompleted"`

	// 共享目标：双方各自持有独立的任务序列，通过 PartnerGoalID 互相指向
	PartnerID     *uint `gorm:"type:bigint unsigned" json:"partnerId,omitempty"`
	PartnerGoalID *uint `gorm:"type:bigint unsigned" json:"partnerGoalId,omitempty"`
}

func (Goal) TableName() string {
	return "goals"
}

// GoalSummary 返回给客户端的目标概要，Progress 每次读取时重新计算
type GoalSummary struct {
	ID            uint     `json:"id"`
	Title         string   `json:"title"`
	Type          GoalType `json:"type"`
	Progress      int      `json:"progress"`
	CompletedDays int      `json:"completedDays"`
	SkippedDays   int      `json:"skippedDays"`
	CurrentDay    int      `json:"currentDay"`
	TotalDays     int      `json:"totalDays"`
	IsActive      bool     `json:"isActive"`
	IsCompleted   bool     `json:"isCompleted"`
}

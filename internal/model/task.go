package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// TaskStatus 任务状态，pending 是唯一可操作状态
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskCompleted TaskStatus = "completed"
	TaskSkipped   TaskStatus = "skipped"
)

// ActionItem 当日任务的子项
type ActionItem struct {
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// ActionItems 以 JSON 列存储
type ActionItems []ActionItem

func (a ActionItems) Value() (driver.Value, error) {
	if a == nil {
		a = ActionItems{}
	}
	return json.Marshal(a)
}

func (a *ActionItems) Scan(value interface{}) error {
	if value == nil {
		*a = ActionItems{}
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return errors.New("action items: unsupported scan type")
	}
	return json.Unmarshal(b, a)
}

// Resource 学习资源链接
type Resource struct {
	Type    string `json:"type"` // video / tutorial / docs / article
	Title   string `json:"title"`
	URL     string `json:"url"`
	Creator string `json:"creator"`
}

// Resources 以 JSON 列存储
type Resources []Resource

func (r Resources) Value() (driver.Value, error) {
	if r == nil {
		r = Resources{}
	}
	return json.Marshal(r)
}

func (r *Resources) Scan(value interface{}) error {
	if value == nil {
		*r = Resources{}
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return errors.New("resources: unsupported scan type")
	}
	return json.Unmarshal(b, r)
}

// Task 目标中某一天的任务。跳过后会以相同 DayNumber 新建一条记录排到队尾，
// 因此 DayNumber 在一个目标的完整历史里不保证唯一，路线图读取时必须按状态过滤。
// swagger:model Task
type Task struct {
	BaseModel
	GoalID uint `gorm:"index;type:bigint unsigned;not null" json:"goalId"`
	UserID uint `gorm:"index;type:bigint unsigned;not null" json:"userId"`

	DayNumber        int    `gorm:"index;not null" json:"dayNumber"`
	Title            string `gorm:"size:255;not null" json:"title"`
	Description      string `gorm:"type:text" json:"description"`
	Phase            string `gorm:"size:128" json:"phase"`
	SkillProgression string `gorm:"size:255" json:"skillProgression"`
	EstimatedMinutes int    `gorm:"default:0" json:"estimatedMinutes"`

	Status        TaskStatus `gorm:"type:enum('pending','completed','skipped');default:'pending';index" json:"status"`
	ScheduledDate *time.Time `json:"scheduledDate,omitempty"` // 仅用于日历展示的排期提示

	ActionItems ActionItems `gorm:"type:json" json:"actionItems"`
	Resources   Resources   `gorm:"type:json" json:"resources"`

	CompletedAt *time.Time `json:"completedAt,omitempty"`
	SkippedAt   *time.Time `json:"skippedAt,omitempty"`
}

func (Task) TableName() string {
	return "tasks"
}

// AllActionItemsCompleted 完成任务前的服务端校验
func (t *Task) AllActionItemsCompleted() bool {
	for _, item := range t.ActionItems {
		if !item.Completed {
			return false
		}
	}
	return true
}

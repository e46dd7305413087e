package model

// ActivityType 动态类型
type ActivityType string

const (
	ActivityCompleted ActivityType = "completed"
)

// Activity 完成任务后追加的动态记录，只写不改
// swagger:model Activity
type Activity struct {
	BaseModel
	UserID          uint         `gorm:"index;type:bigint unsigned;not null" json:"userId"`
	GoalID          uint         `gorm:"index;type:bigint unsigned;not null" json:"goalId"`
	Type            ActivityType `gorm:"type:enum('completed');default:'completed'" json:"type"`
	Message         string       `gorm:"size:512" json:"message"`
	TaskTitle       string       `gorm:"size:255" json:"taskTitle"`
	SkillName       string       `gorm:"size:255" json:"skillName"`
	ProgressPercent int          `gorm:"default:0" json:"progressPercent"`
	IsPublic        bool         `gorm:"default:true" json:"isPublic"`

	User User `gorm:"foreignKey:UserID;references:ID;constraint:false" json:"user,omitempty"`
}

func (Activity) TableName() string {
	return "activities"
}

package model

import "time"

// User 通过 Google 登录的用户
// swagger:model User
type User struct {
	BaseModel
	GoogleID           string     `gorm:"size:64;uniqueIndex;not null" json:"-"`
	Email              string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Name               string     `gorm:"size:255;not null" json:"name"`
	Picture            string     `gorm:"size:512" json:"picture"`
	OnboardingComplete bool       `gorm:"default:false" json:"onboardingComplete"`
	ShowInActivityFeed bool       `gorm:"default:true" json:"showInActivityFeed"`
	Timezone           string     `gorm:"size:64;default:'UTC'" json:"timezone"`
	ReminderEnabled    bool       `gorm:"default:true" json:"reminderEnabled"`
	OpenAIAPIKey       string     `gorm:"size:255" json:"-"` // 用户自带的 OpenAI Key，仅用于学习助手
	LastActiveAt       *time.Time `json:"lastActiveAt,omitempty"`
}

func (User) TableName() string {
	return "users"
}

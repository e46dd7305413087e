package model

// InviteStatus 邀请状态，accepted / declined 均为终态
type InviteStatus string

const (
	InvitePending  InviteStatus = "pending"
	InviteAccepted InviteStatus = "accepted"
	InviteDeclined InviteStatus = "declined"
)

// GoalInvite 共享目标邀请。接受之前不会创建真正的 Goal，
// 草稿字段在发出邀请时从发起方的目标快照而来。
// swagger:model GoalInvite
type GoalInvite struct {
	UUIDBase
	SenderID     uint `gorm:"index;not null" json:"senderId"`
	Sender       User `gorm:"foreignKey:SenderID;references:ID;constraint:false" json:"sender,omitempty"`
	ReceiverID   uint `gorm:"index;not null" json:"receiverId"`
	SenderGoalID uint `gorm:"index;not null" json:"senderGoalId"` // 接受时从该目标复制任务主题

	GoalType     GoalType `gorm:"type:enum('learning','project','health','exam','habit')" json:"goalType"`
	Title        string   `gorm:"size:255;not null" json:"title"`
	Description  string   `gorm:"type:text" json:"description"`
	TotalDays    int      `gorm:"not null" json:"totalDays"`
	DailyMinutes int      `gorm:"not null" json:"dailyMinutes"`

	Status InviteStatus `gorm:"type:enum('pending','accepted','declined');default:'pending';index" json:"status"`
}

func (GoalInvite) TableName() string {
	return "goal_invites"
}

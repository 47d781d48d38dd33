package models

import "time"

type GroupRole string

const (
	GroupRoleHost      GroupRole = "HOST"
	GroupRoleCompanion GroupRole = "COMPANION"
)

type GroupMember struct {
	BaseModel
	GroupID  uint      `json:"groupID" gorm:"not null;index;uniqueIndex:idx_group_user"`
	UserID   uint      `json:"userID" gorm:"not null;index;uniqueIndex:idx_group_user"`
	Role     GroupRole `json:"role" gorm:"type:varchar(20);not null;default:'COMPANION'"`
	JoinedAt time.Time `json:"joinedAt" gorm:"autoCreateTime"`

	User  User  `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Group Group `json:"group,omitempty" gorm:"foreignKey:GroupID"`
}

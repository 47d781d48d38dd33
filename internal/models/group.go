package models

import "github.com/google/uuid"

type Group struct {
	BaseModel
	Name      string  `json:"name" gorm:"type:varchar(150);not null"`
	HostID    uint    `json:"hostID" gorm:"not null;index"`
	Thumbnail *string `json:"thumbnail,omitempty" gorm:"type:text"`
	Finished  bool    `json:"finished" gorm:"not null;default:false"`
	Scheduled bool    `json:"scheduled" gorm:"not null;default:false"`

	Host        User              `json:"host,omitempty" gorm:"foreignKey:HostID"`
	Members     []GroupMember     `json:"members,omitempty" gorm:"foreignKey:GroupID"`
	Calendar    []CalendarEntry   `json:"-" gorm:"foreignKey:GroupID"`
	Invites     []GroupInvite     `json:"-" gorm:"foreignKey:GroupID"`
	Backgrounds []GroupBackground `json:"-" gorm:"foreignKey:GroupID"`
}

type GroupInvite struct {
	BaseModel
	GroupID     uint      `json:"groupID" gorm:"not null;index"`
	CreatedByID uint      `json:"createdByID" gorm:"not null"`
	Code        uuid.UUID `json:"code" gorm:"type:uuid;uniqueIndex;not null"`
}

// GroupBackground holds the cover image picked for a finished trip. One row
// per group; replaced on re-upload.
type GroupBackground struct {
	BaseModel
	GroupID       uint   `json:"groupID" gorm:"uniqueIndex;not null"`
	BackgroundURL string `json:"backgroundURL" gorm:"type:text;not null"`
}

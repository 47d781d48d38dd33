package models

// CalendarEntry is one member's available date range for a group. At most one
// row per (group, user); replacing a range is delete-then-insert, never an
// in-place update.
type CalendarEntry struct {
	BaseModel
	GroupID   uint   `json:"groupID" gorm:"not null;index;uniqueIndex:idx_calendar_group_user"`
	UserID    uint   `json:"userID" gorm:"not null;uniqueIndex:idx_calendar_group_user"`
	StartDate string `json:"startDate" gorm:"type:varchar(20);not null"`
	EndDate   string `json:"endDate" gorm:"type:varchar(20);not null"`

	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

package models

type Trip struct {
	BaseModel
	GroupID uint `json:"groupID" gorm:"not null;index"`
	// Date holds the confirmed range encoded as "start~end".
	Date string `json:"date" gorm:"type:varchar(50);not null"`

	Group     Group      `json:"group,omitempty" gorm:"foreignKey:GroupID"`
	Locations []Location `json:"locations,omitempty" gorm:"foreignKey:TripID"`
}

type Location struct {
	BaseModel
	TripID      uint    `json:"tripID" gorm:"not null;index"`
	Day         int     `json:"day" gorm:"not null"`
	Destination string  `json:"destination" gorm:"type:varchar(150)"`
	Name        string  `json:"name" gorm:"type:varchar(150);not null"`
	Address     string  `json:"address" gorm:"type:varchar(255)"`
	VisitTime   string  `json:"visitTime" gorm:"type:varchar(20)"`
	Category    string  `json:"category" gorm:"type:varchar(50)"`
	Hashtag     string  `json:"hashtag" gorm:"type:varchar(150)"`
	Thumbnail   *string `json:"thumbnail,omitempty" gorm:"type:text"`
	// Version increments on every successful update and backs the optimistic
	// concurrency check on edits.
	Version int `json:"version" gorm:"not null;default:1"`
}

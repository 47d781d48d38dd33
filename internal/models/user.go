package models

type User struct {
	BaseModel
	Email        string  `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string  `json:"-" gorm:"type:text;not null"`
	Nickname     string  `json:"nickname" gorm:"type:varchar(100);not null"`
	ProfileImage *string `json:"profileImage,omitempty" gorm:"type:text"`

	// Set for accounts created through an OAuth provider. Such accounts carry
	// an empty password hash and can only log in through the provider.
	Provider       *string `json:"provider,omitempty" gorm:"type:varchar(20);uniqueIndex:idx_provider_identity"`
	ProviderUserID *string `json:"-" gorm:"type:varchar(100);uniqueIndex:idx_provider_identity"`

	Memberships []GroupMember `json:"-" gorm:"foreignKey:UserID"`
}

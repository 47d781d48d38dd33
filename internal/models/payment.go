package models

type Payment struct {
	BaseModel
	TripID      uint   `json:"tripID" gorm:"not null;index"`
	Category    string `json:"category" gorm:"type:varchar(50);not null"`
	Description string `json:"description" gorm:"type:varchar(255)"`
	TotalPrice  int64  `json:"price" gorm:"not null"`
	PaidByID    uint   `json:"paidByID" gorm:"not null;index"`
	Date        string `json:"date" gorm:"type:varchar(20)"`
	Version     int    `json:"version" gorm:"not null;default:1"`

	PaidBy User           `json:"paidBy,omitempty" gorm:"foreignKey:PaidByID"`
	Shares []PaymentShare `json:"shares,omitempty" gorm:"foreignKey:PaymentID"`
}

// PaymentShare marks one member's slice of an evenly split payment. A payment
// without shares is a personal expense.
type PaymentShare struct {
	BaseModel
	PaymentID uint `json:"paymentID" gorm:"not null;index;uniqueIndex:idx_payment_user"`
	UserID    uint `json:"userID" gorm:"not null;uniqueIndex:idx_payment_user"`
	IsPaid    bool `json:"isPaid" gorm:"not null;default:false"`

	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

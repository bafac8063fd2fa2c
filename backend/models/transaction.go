package models

import "time"

type PaymentProvider string

const (
	PaymentProviderStripe PaymentProvider = "stripe"
)

func (p PaymentProvider) Valid() bool {
	return p == PaymentProviderStripe
}

// Transaction is an immutable record of one completed purchase, keyed by
// (UserID, TransactionID).
type Transaction struct {
	UserID          string          `gorm:"primaryKey" json:"userId"`
	TransactionID   string          `gorm:"primaryKey" json:"transactionId"`
	DateTime        time.Time       `gorm:"not null" json:"dateTime"`
	CourseID        string          `gorm:"not null;index:idx_course_transactions" json:"courseId"`
	PaymentProvider PaymentProvider `gorm:"not null" json:"paymentProvider"`
	Amount          int64           `gorm:"not null" json:"amount"`
	CreatedAt       time.Time       `json:"createdAt"`
}

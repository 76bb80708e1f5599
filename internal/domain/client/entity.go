package client

import "time"

const DefaultCountryCode = "+216"

// Client is a customer of the agency. UserID links the login account, if any.
type Client struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	UserID      *int64    `gorm:"uniqueIndex" json:"user_id,omitempty"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Email       string    `gorm:"size:254;not null;uniqueIndex" json:"email"`
	Phone       string    `gorm:"size:20" json:"phone"`
	CountryCode string    `gorm:"size:5" json:"country_code"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"-"`
}

func (Client) TableName() string { return "clients" }

// Historique is one line of a client's activity log.
type Historique struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	ClientID  int64     `gorm:"index;not null" json:"client_id"`
	Action    string    `gorm:"size:255;not null" json:"action"`
	CreatedAt time.Time `json:"date"`
}

func (Historique) TableName() string { return "historique" }

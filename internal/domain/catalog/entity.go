package catalog

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"devisportal/internal/domain/client"
)

type Category string

const (
	CategoryWeb    Category = "web"
	CategoryMobile Category = "mobile"
	CategoryDesign Category = "design"
	CategoryOther  Category = "other"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryWeb, CategoryMobile, CategoryDesign, CategoryOther:
		return true
	}
	return false
}

// FeatureList is stored as comma separated text and served as a JSON array.
type FeatureList []string

func (f FeatureList) Value() (driver.Value, error) {
	return strings.Join(f, ","), nil
}

func (f *FeatureList) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case nil:
		*f = FeatureList{}
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("features: unsupported type %T", src)
	}
	*f = splitFeatures(raw)
	return nil
}

func splitFeatures(raw string) FeatureList {
	out := FeatureList{}
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Offering is one service of the public catalogue.
type Offering struct {
	ID          int64       `gorm:"primaryKey" json:"id"`
	Name        string      `gorm:"size:100;not null" json:"name"`
	Description string      `gorm:"type:text" json:"description"`
	Category    Category    `gorm:"size:50;not null" json:"category"`
	PriceRange  string      `gorm:"size:50" json:"price_range"`
	Features    FeatureList `gorm:"type:text" json:"features"`
	Icon        *string     `gorm:"size:50" json:"icon"`
	CreatedAt   time.Time   `json:"created_at"`
}

func (Offering) TableName() string { return "services" }

type Testimonial struct {
	ID         int64          `gorm:"primaryKey" json:"id"`
	ClientID   int64          `gorm:"index;not null" json:"client_id"`
	Client     *client.Client `gorm:"foreignKey:ClientID;constraint:OnDelete:CASCADE" json:"-"`
	ClientName string         `gorm:"-" json:"client_name,omitempty"`
	Content    string         `gorm:"type:text;not null" json:"content"`
	Rating     int            `gorm:"not null;default:5" json:"rating"`
	IsApproved bool           `gorm:"not null;default:false" json:"is_approved"`
	CreatedAt  time.Time      `json:"created_at"`
}

func (Testimonial) TableName() string { return "testimonials" }

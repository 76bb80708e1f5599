package upload

import "time"

// Purpose selects the allow-list a file is checked against.
type Purpose string

const (
	PurposeSpecification Purpose = "specification"
	PurposeOCRSource     Purpose = "ocr_source"
)

// Upload is a file stored on local disk. Devis and factures reference it by ID.
type Upload struct {
	ID           string    `gorm:"column:id;primaryKey" json:"id"`
	UserID       int64     `gorm:"column:user_id;index" json:"user_id"`
	Purpose      Purpose   `gorm:"column:purpose;size:32" json:"purpose"`
	OriginalName string    `gorm:"column:original_name" json:"original_name"`
	FilePath     string    `gorm:"column:file_path" json:"-"` // relative to the uploads dir
	MimeType     string    `gorm:"column:mime_type" json:"mime_type"`
	Size         int64     `gorm:"column:size" json:"size"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Upload) TableName() string { return "uploads" }

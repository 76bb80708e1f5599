package server

import (
	"gorm.io/gorm"

	"devisportal/internal/domain/auth"
	"devisportal/internal/domain/catalog"
	"devisportal/internal/domain/client"
	"devisportal/internal/domain/devis"
	"devisportal/internal/domain/facture"
	"devisportal/internal/domain/upload"
)

// Models lists every table in dependency order.
func Models() []any {
	return []any{
		&auth.User{},
		&client.Client{},
		&client.Historique{},
		&auth.VerificationCode{},
		&auth.PasswordResetToken{},
		&upload.Upload{},
		&devis.Devis{},
		&facture.Facture{},
		&facture.Ligne{},
		&catalog.Offering{},
		&catalog.Testimonial{},
	}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

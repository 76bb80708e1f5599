package client

type CreateClientRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone" validate:"omitempty,max=20"`
	CountryCode string `json:"country_code" validate:"omitempty,max=5"`
}

type UpdateClientRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Phone       *string `json:"phone" validate:"omitempty,max=20"`
	CountryCode *string `json:"country_code" validate:"omitempty,max=5"`
}

type CreateHistoriqueRequest struct {
	ClientID int64  `json:"client_id" validate:"required,gt=0"`
	Action   string `json:"action" validate:"required,max=255"`
}

package catalog

type OfferingRequest struct {
	Name        string   `json:"name" validate:"required,max=100"`
	Description string   `json:"description"`
	Category    Category `json:"category" validate:"required,oneof=web mobile design other"`
	PriceRange  string   `json:"price_range" validate:"max=50"`
	Features    []string `json:"features"`
	Icon        *string  `json:"icon" validate:"omitempty,max=50"`
}

type CreateTestimonialRequest struct {
	Content string `json:"content" validate:"required"`
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
}

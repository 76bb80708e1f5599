package catalog

import "errors"

var (
	ErrOfferingNotFound    = errors.New("service not found")
	ErrTestimonialNotFound = errors.New("testimonial not found")
	ErrInvalidCategory     = errors.New("invalid category")
	ErrInvalidRating       = errors.New("rating must be between 1 and 5")
	ErrEmptyContent        = errors.New("content is required")
	ErrNoClient            = errors.New("caller has no client record")
)

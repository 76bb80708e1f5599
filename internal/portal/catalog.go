package portal

import (
	"context"
	"net/http"
	"net/url"

	"devisportal/internal/domain/catalog"
)

func (c *Client) ListServices(ctx context.Context, category string) ([]catalog.Offering, error) {
	cl := call{method: http.MethodGet, path: "/services/"}
	if category != "" {
		cl.query = url.Values{"category": {category}}
	}
	var out []catalog.Offering
	err := c.doJSON(ctx, cl, &out)
	return out, err
}

// ListTestimonials returns the approved testimonials shown on the home page.
func (c *Client) ListTestimonials(ctx context.Context) ([]catalog.Testimonial, error) {
	var out []catalog.Testimonial
	err := c.doJSON(ctx, call{method: http.MethodGet, path: "/testimonials/"}, &out)
	return out, err
}

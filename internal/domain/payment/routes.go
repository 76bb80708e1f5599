package payment

import "github.com/gin-gonic/gin"

// RegisterRoutes expects rg to be behind JWTAuth.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	p := rg.Group("/payment")
	{
		p.POST("/:id/intent/", h.CreateIntent)
		p.POST("/:id/confirm/", h.Confirm)
		p.POST("/paypal/:id/create/", h.CreatePayPalOrder)
		p.POST("/paypal/:id/execute/", h.ExecutePayPal)
	}
}

// RegisterPublicRoutes mounts the PayPal return URL, which a browser reaches without a bearer token.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/payment/paypal/execute/", h.ExecuteRedirect)
}

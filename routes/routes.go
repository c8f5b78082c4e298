package routes

import (
	"strings"

	"bar-order-api/auth"
	"bar-order-api/handlers"
	"bar-order-api/middleware"

	"github.com/gin-gonic/gin"
)

// both registers a handler on path with and without the trailing slash
func both(g *gin.RouterGroup, method, path string, h ...gin.HandlerFunc) {
	trimmed := strings.TrimSuffix(path, "/")
	g.Handle(method, trimmed, h...)
	g.Handle(method, trimmed+"/", h...)
}

// SetupRoutes wires every endpoint. Callers should disable
// RedirectTrailingSlash so both path spellings are served directly.
func SetupRoutes(r *gin.Engine, api *handlers.API, tokens *auth.TokenMaker, mediaRoot, mediaURL string) {
	r.GET("/health", handlers.Health)
	r.Static(strings.TrimSuffix(mediaURL, "/"), mediaRoot)

	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		both(public, "POST", "/login/", api.Login)
		both(public, "POST", "/token/refresh/", api.RefreshToken)

		both(public, "GET", "/products/", api.ListProducts)
		both(public, "GET", "/products/:id/", api.GetProduct)

		// Customers place orders from the table QR page without an account
		both(public, "POST", "/orders/", api.CreateOrder)

		public.GET("/state-machine", handlers.GetStateMachineInfo)
		public.GET("/tables/:table/qrcode", api.GetTableQRCode)
	}

	// ── Staff routes ───────────────────────────────────────────────
	staff := r.Group("/api")
	staff.Use(middleware.AuthRequired(tokens))
	{
		// Catalog management
		both(staff, "POST", "/products/", api.CreateProduct)
		both(staff, "POST", "/products/upload-image", api.UploadProductImage)
		both(staff, "PUT", "/products/:id/", api.UpdateProduct)
		both(staff, "PATCH", "/products/:id/", api.UpdateProduct)
		both(staff, "DELETE", "/products/:id/", api.DeleteProduct)

		// Order management
		both(staff, "GET", "/orders/", api.ListOrders)
		both(staff, "GET", "/orders/:id/", api.GetOrder)
		both(staff, "PUT", "/orders/:id/", api.UpdateOrder)
		both(staff, "PATCH", "/orders/:id/", api.UpdateOrder)
		both(staff, "DELETE", "/orders/:id/", api.DeleteOrder)
		both(staff, "POST", "/orders/:id/cancel_order", api.CancelOrder)
		both(staff, "POST", "/orders/:id/complete_order", api.CompleteOrder)
		both(staff, "GET", "/orders/:id/history", api.GetOrderHistory)
	}
}

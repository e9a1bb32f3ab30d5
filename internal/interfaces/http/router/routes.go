package router

import (
	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// Handlers groups the storefront HTTP handlers
type Handlers struct {
	System   *handler.SystemHandler
	Auth     *handler.AuthHandler
	Products *handler.ProductHandler
	Cart     *handler.CartHandler
	Checkout *handler.CheckoutHandler
	Orders   *handler.OrderHandler
	Purchase *handler.PurchaseHandler
	Profile  *handler.ProfileHandler
}

// Options tunes route protection
type Options struct {
	// LoginPath is reported in meta.login when a protected route is refused
	LoginPath string
	// AuthLimiter throttles credential endpoints; nil disables it
	AuthLimiter *middleware.RateLimiter
}

// RegisterProbes mounts liveness and readiness outside the versioned API
func RegisterProbes(engine *gin.Engine, system *handler.SystemHandler) {
	engine.GET("/health", system.Health)
	engine.GET("/ready", system.Ready)
}

// RegisterStorefront adds the public and session-protected route groups to r
func RegisterStorefront(r *Router, h Handlers, opts Options) {
	loginPath := opts.LoginPath
	if loginPath == "" {
		loginPath = middleware.DefaultLogin
	}
	var credentialLimit []gin.HandlerFunc
	if opts.AuthLimiter != nil {
		credentialLimit = append(credentialLimit, middleware.AuthRateLimit(opts.AuthLimiter))
	}
	requireSession := middleware.RequireSession(loginPath)

	system := NewDomainGroup("system", "")
	system.GET("/health", h.System.Health)
	system.GET("/ready", h.System.Ready)

	authRoutes := NewDomainGroup("auth", "/auth")
	authRoutes.GET("/status", h.Auth.Status)
	authRoutes.GET("/modes", h.Auth.Modes)
	authRoutes.POST("/demo/sign-in", append(credentialLimit, h.Auth.SignIn)...)
	authRoutes.POST("/demo/sign-up", append(credentialLimit, h.Auth.SignUp)...)
	authRoutes.GET("/oidc/login", h.Auth.OIDCLogin)
	authRoutes.GET("/oidc/callback", h.Auth.OIDCCallback)
	authRoutes.POST("/sign-out", h.Auth.SignOut)
	authRoutes.POST("/switch-mode", h.Auth.SwitchMode)

	users := NewDomainGroup("users", "/users")
	users.POST("/register", append(credentialLimit, h.Profile.Register)...)

	products := NewDomainGroup("catalog", "/products").Use(requireSession)
	products.GET("", h.Products.List)
	products.POST("", h.Products.Create)
	products.GET("/categories", h.Products.Categories)
	products.GET("/:id", h.Products.Get)
	products.PUT("/:id", h.Products.Update)
	products.DELETE("/:id", h.Products.Delete)

	cart := NewDomainGroup("cart", "/cart").Use(requireSession)
	cart.GET("", h.Cart.Get)
	cart.DELETE("", h.Cart.Clear)
	cart.POST("/items", h.Cart.AddItem)
	cart.PUT("/items/:productId", h.Cart.UpdateItem)
	cart.DELETE("/items/:productId", h.Cart.RemoveItem)
	cart.POST("/sync", h.Cart.Sync)

	checkout := NewDomainGroup("checkout", "/checkout").Use(requireSession)
	checkout.POST("", h.Checkout.Checkout)

	orders := NewDomainGroup("orders", "/orders").Use(requireSession)
	orders.GET("", h.Orders.List)
	orders.GET("/:id", h.Orders.Get)
	orders.PUT("/:id/status", h.Orders.UpdateStatus)
	orders.POST("/:id/cancel", h.Orders.Cancel)

	purchases := NewDomainGroup("purchases", "/purchases").Use(requireSession)
	purchases.GET("", h.Purchase.ListMine)
	purchases.POST("", h.Purchase.Create)
	purchases.GET("/options", h.Purchase.Options)
	purchases.GET("/admin", h.Purchase.ListAll)
	purchases.GET("/:id", h.Purchase.Get)

	profile := NewDomainGroup("profile", "/profile").Use(requireSession)
	profile.GET("", h.Profile.Get)
	profile.PUT("", h.Profile.Update)
	profile.DELETE("", h.Profile.Delete)

	r.Register(system).
		Register(authRoutes).
		Register(users).
		Register(products).
		Register(cart).
		Register(checkout).
		Register(orders).
		Register(purchases).
		Register(profile)
}

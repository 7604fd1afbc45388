package httpserver

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"techzone-storefront/internal/domain"
	"techzone-storefront/internal/service/account"
	"techzone-storefront/internal/service/cart"
	customersvc "techzone-storefront/internal/service/customer"
)

type productService interface {
	List(ctx context.Context, categories []string) ([]domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
}

type categoryService interface {
	List(ctx context.Context) ([]domain.Category, error)
}

type customerService interface {
	Signup(ctx context.Context, in customersvc.SignupInput) (*domain.Customer, error)
	Login(ctx context.Context, deviceID, email, password string) (*domain.Customer, string, error)
	Logout(ctx context.Context, deviceID, token string) error
	LookupByToken(ctx context.Context, token string) (*domain.Customer, error)
	UpdateProfile(ctx context.Context, customerID string, update domain.ProfileUpdate) (*domain.Customer, error)
	ChangePassword(ctx context.Context, customerID, current, next string) error
	AccessTTLSeconds() int
}

type accountService interface {
	View(ctx context.Context, customer *domain.Customer, tab domain.AccountTab) (account.View, error)
}

type cartSessions interface {
	Get(deviceID string) *cart.Store
}

type deviceService interface {
	Issue() string
	Parse(raw string) (string, error)
}

// Deps groups the services the router needs.
type Deps struct {
	ProductSvc  productService
	CategorySvc categoryService
	CustomerSvc customerService
	AccountSvc  accountService
	Carts       cartSessions
	Devices     deviceService
	CORSOrigins []string
}

func (d Deps) validate() error {
	switch {
	case d.ProductSvc == nil:
		return errors.New("httpserver: product service required")
	case d.CategorySvc == nil:
		return errors.New("httpserver: category service required")
	case d.CustomerSvc == nil:
		return errors.New("httpserver: customer service required")
	case d.AccountSvc == nil:
		return errors.New("httpserver: account service required")
	case d.Carts == nil:
		return errors.New("httpserver: cart sessions required")
	case d.Devices == nil:
		return errors.New("httpserver: device service required")
	}
	return nil
}

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, ready *readiness, deps Deps) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(requestLogger(logger), gin.Recovery(), cors.New(corsConfig(deps.CORSOrigins)))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(ready))

	h := &handlers{deps: deps, logger: logger}

	router.GET("/products", h.listProducts)
	router.GET("/products/:id", h.getProduct)
	router.GET("/categories", h.listCategories)

	api := router.Group("/", deviceMiddleware(deps.Devices), sessionMiddleware(deps.CustomerSvc))

	auth := api.Group("/auth")
	auth.POST("/signup", h.signup)
	auth.POST("/login", h.login)
	auth.POST("/logout", requireCustomer(), h.logout)

	me := api.Group("/me", requireCustomer())
	me.GET("", h.me)
	me.PATCH("/profile", h.updateProfile)
	me.PUT("/password", h.changePassword)
	me.GET("/account", h.accountView)
	me.GET("/account/:tab", h.accountView)

	carts := api.Group("/cart")
	carts.GET("", h.getCart)
	carts.DELETE("", h.emptyCart)
	carts.POST("/items", h.addCartItem)
	carts.PATCH("/items/:productId", h.updateCartItem)
	carts.DELETE("/items/:productId", h.removeCartItem)
	carts.GET("/stream", h.streamCart)

	return router, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", deviceHeader},
		ExposeHeaders: []string{"Content-Length", deviceHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

type handlers struct {
	deps   Deps
	logger *zap.Logger
}

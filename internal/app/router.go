package app

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/linemk/ecofinds/internal/app/handlers"
	"github.com/linemk/ecofinds/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/ecofinds/internal/lib/logger/handlers/urllog"
	"github.com/linemk/ecofinds/internal/lib/ratelimit"
	"github.com/linemk/ecofinds/internal/lib/sanitizer"
	"github.com/linemk/ecofinds/internal/metrics"
	"github.com/linemk/ecofinds/internal/service"
	"github.com/linemk/ecofinds/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
)

// Router собирает репозитории, сервисы и маршруты HTTP API.
// Метрики регистрируются в reg и отдаются на /metrics.
func (a *App) Router(reg *prometheus.Registry) http.Handler {
	log := a.Logger
	collector := metrics.NewCollector(reg)

	router := chi.NewRouter()
	// настройка middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(urllog.CustomLoggerMiddleware(log))
	router.Use(metrics.Middleware(collector))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)

	// слой работы с БД по каждому направлению
	userRepo := storage.NewUserRepository(a.DB)
	sessionRepo := storage.NewSessionRepository(a.DB)
	productRepo := storage.NewProductRepository(a.DB)
	cartRepo := storage.NewCartRepository(a.DB)
	orderRepo := storage.NewOrderRepository(a.DB)

	tokenTTL := time.Duration(a.Config.JWT.TokenTTL) * time.Minute
	identityService := service.NewIdentityService(log, userRepo, sessionRepo, tokenTTL, a.Config.JWT.Secret)
	catalogService := service.NewCatalogService(log, productRepo, sanitizer.New())
	cartService := service.NewCartService(log, cartRepo, productRepo)
	orderService := service.NewOrderService(log, a.DB, userRepo, cartRepo, orderRepo, collector)
	dashboardService := service.NewDashboardService(log, userRepo, productRepo, orderRepo, cartRepo)

	router.Handle("/metrics", metrics.Handler(reg))

	// регистрация и вход ограничены по частоте на один IP
	limiter := ratelimit.New(a.Config.RateLimit.AuthPerMinute, a.Config.RateLimit.AuthBurst)
	router.Group(func(r chi.Router) {
		r.Use(limiter.Middleware(log))
		r.Post("/api/signup", handlers.SignupHandler(log, identityService))
		r.Post("/api/auth", handlers.AuthHandler(log, identityService))
	})

	// каталог открыт без авторизации
	router.Get("/api/categories", handlers.CategoriesHandler(log))
	router.Get("/api/products", handlers.ListProductsHandler(log, catalogService))
	router.Get("/api/products/{id}", handlers.GetProductHandler(log, catalogService))

	router.Group(func(r chi.Router) {
		r.Use(jwtmiddleware.NewJWTMiddleware(a.Config.JWT.Secret, identityService))

		r.Post("/api/logout", handlers.LogoutHandler(log, identityService))
		r.Get("/api/profile", handlers.ProfileHandler(log, identityService))
		r.Put("/api/profile", handlers.UpdateProfileHandler(log, identityService))
		r.Get("/api/dashboard", handlers.DashboardHandler(log, dashboardService))

		r.Post("/api/products", handlers.CreateProductHandler(log, catalogService))
		r.Put("/api/products/{id}", handlers.UpdateProductHandler(log, catalogService))
		r.Delete("/api/products/{id}", handlers.DeleteProductHandler(log, catalogService))
		r.Get("/api/my/products", handlers.MyProductsHandler(log, catalogService))

		r.Get("/api/cart", handlers.CartHandler(log, cartService))
		r.Post("/api/cart/items", handlers.AddToCartHandler(log, cartService))
		r.Put("/api/cart/items/{productID}", handlers.SetCartQuantityHandler(log, cartService))
		r.Delete("/api/cart/items/{productID}", handlers.RemoveFromCartHandler(log, cartService))

		r.Post("/api/checkout", handlers.CheckoutHandler(log, orderService))
		r.Get("/api/orders", handlers.OrdersHandler(log, orderService))
	})

	return router
}

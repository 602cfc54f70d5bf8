package routes

import (
	"net/http"

	"github.com/templui/walletauth/internal/app"
	"github.com/templui/walletauth/internal/handler"
	"github.com/templui/walletauth/internal/metrics"
	"github.com/templui/walletauth/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	auth := handler.NewAuthHandler(app.IdentityService, app.Cfg.IsProduction())
	wallet := handler.NewWalletHandler(app.IdentityService)
	health := handler.NewHealthHandler(app.DB)

	mux := http.NewServeMux()

	// Auth actions (rate limited per client IP)
	rateLimiter := func(next http.HandlerFunc) http.HandlerFunc { return next }
	if app.Cfg.RateLimitEnabled {
		rateLimiter = middleware.RateLimit(app.Limiter)
	}

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux.HandleFunc("POST /register", rateLimiter(auth.Register))
	mux.HandleFunc("POST /login", rateLimiter(auth.Login))
	mux.HandleFunc("POST /send-verification-email", rateLimiter(auth.ResendVerification))
	mux.HandleFunc("POST /resend-verification", rateLimiter(auth.ResendVerification))

	// Token verification: /verify-email/{token} and /verify-email?token=
	mux.HandleFunc("GET /verify-email/{token}", auth.VerifyEmail)
	mux.HandleFunc("GET /verify-email", auth.VerifyEmail)

	mux.HandleFunc("POST /validate-wallet-format", wallet.ValidateFormat)

	// ============================================================================
	// PROTECTED ROUTES (session required)
	// ============================================================================

	mux.HandleFunc("POST /wallet-challenge", rateLimiter(middleware.RequireAuth(wallet.Challenge)))
	mux.HandleFunc("POST /verify-wallet", rateLimiter(middleware.RequireAuth(wallet.Verify)))
	mux.HandleFunc("GET /verification-status", middleware.RequireAuth(auth.VerificationStatus))

	// Example of gating on a verified email
	requireVerified := middleware.RequireVerified(app.IdentityService)
	mux.HandleFunc("GET /verified-only", middleware.RequireAuth(requireVerified(auth.VerifiedOnly)))

	// ============================================================================
	// OPERATIONS
	// ============================================================================

	mux.Handle("GET /metrics", metrics.Handler(app.Metrics))
	mux.HandleFunc("GET /healthz", health.Health)

	// Apply global middleware. Logging sits next to the mux so it sees the
	// matched route pattern.
	return middleware.Chain(mux,
		middleware.AuthMiddleware(app.IdentityService),
		middleware.RequestLogging,
	)
}

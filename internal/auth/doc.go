// Package auth provides authentication and authorization for the CMS API.
//
// Staff and administrators log in with a username (or email) and password and
// receive a short-lived HS256 JWT access token. A token that has expired may
// still be exchanged for a fresh one at GET /auth/refresh while it is within
// the configured refresh window.
//
// # Configuration
//
//	AUTH_JWT_SECRET=<hex>         # Generated and persisted if empty
//	AUTH_TOKEN_EXPIRY=1h          # Access token lifetime
//	AUTH_REFRESH_WINDOW=24h       # Grace period for refresh after expiry
//	AUTH_BCRYPT_COST=12           # bcrypt cost factor
//	AUTH_MAX_LOGIN_ATTEMPTS=5     # Failures before lockout
//
// # Usage
//
//	issuer := auth.NewIssuer(secret, cfg.Auth.TokenExpiry, cfg.Auth.RefreshWindow)
//	authService := auth.NewService(userRepo, issuer, cfg.Auth)
//	mw := auth.NewMiddleware(authService)
//	api.Use(mw.Handler())
//	api.PUT("/books/:id/manage-status", mw.RequireRole(entities.UserRoleAdmin), handler)
//
// Extract the caller in handlers:
//
//	userID := auth.GetUserID(c)
package auth

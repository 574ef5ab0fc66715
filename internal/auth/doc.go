// Package auth provides authentication for the application.
//
// Accounts are email/password (bcrypt) or Google sign-in, and every
// successful signup or login yields a signed JWT the client presents as a
// Bearer token on protected routes.
//
// # Configuration
//
//	JWT_SECRET=<random-string>   # Required, signs session tokens
//	AUTH_TOKEN_EXPIRY=1h         # Token lifetime
//	AUTH_BCRYPT_COST=10          # bcrypt cost factor
//	GOOGLE_CLIENT_ID=<client-id> # Enables Google sign-in when set
//
// # Usage
//
// Initialize authentication in entrypoint:
//
//	issuer := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)
//	authService := auth.NewService(db, issuer, verifier, cfg.Auth)
//	protected.Use(auth.NewMiddleware(issuer).Handler())
//
// Extract the user in handlers:
//
//	userID := auth.GetUserID(c)
package auth

package handlers

import (
	"bookmood/internal/config"
	"bookmood/internal/repos"
	"bookmood/internal/services"

	"github.com/jmoiron/sqlx"
)

type Deps struct {
	DB     *sqlx.DB
	Config config.Config
	Auth   *services.AuthService

	AuthHandler   *AuthHandler
	SignupHandler *SignupHandler
	ReviewHandler *ReviewHandler
	PageHandler   *PageHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config) *Deps {
	userRepo := repos.NewUserRepo(db)
	reviewRepo := repos.NewReviewRepo(db)

	authSvc := &services.AuthService{
		Users:      userRepo,
		Tokens:     &services.TokenService{Secret: []byte(cfg.JWTSecret), Issuer: "bookmood"},
		SessionTTL: cfg.SessionTTL,
		HashCost:   cfg.BcryptCost,
	}
	reviewSvc := services.NewReviewService(reviewRepo)

	return &Deps{
		DB:            db,
		Config:        cfg,
		Auth:          authSvc,
		AuthHandler:   &AuthHandler{Auth: authSvc, SecureCookie: cfg.CookieSecure},
		SignupHandler: &SignupHandler{Auth: authSvc},
		ReviewHandler: &ReviewHandler{Reviews: reviewSvc},
		PageHandler:   &PageHandler{Reviews: reviewSvc},
	}
}

package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"enrollment-backend/internal/authclient"
	"enrollment-backend/internal/enrollment"
	"enrollment-backend/internal/gateway"
	sharedauth "enrollment-backend/internal/shared/auth"
	"enrollment-backend/internal/shared/config"
	"enrollment-backend/internal/shared/server/middleware"
	"enrollment-backend/internal/shared/server/respond"
)

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(cfg config.Config) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	gw, err := gateway.NewHTTPClient(cfg.EnrollmentAPIURL, cfg.EnrollmentAPIKey, cfg.RemoteTimeout)
	if err != nil {
		return nil, err
	}
	authc, err := authclient.NewHTTPClient(cfg.AuthServiceURL, 0)
	if err != nil {
		return nil, err
	}

	var signer *sharedauth.Signer
	if cfg.JWTSecret != "" {
		signer, err = sharedauth.NewSigner(cfg.JWTSecret)
		if err != nil {
			return nil, err
		}
	}

	svc := enrollment.NewService(gw, authc, signer, enrollment.Options{
		SettleDelay:       cfg.LinkSettleDelay,
		PhoneRegion:       cfg.PhoneRegion,
		SessionTTL:        cfg.SessionTTL,
		StaleReadAttempts: cfg.StaleReadAttempts,
	})
	handler := enrollment.NewHandler(svc, cfg.UIRedirectURL)

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
		middleware.Identify(authc),
	)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	handler.RegisterRoutes(api)

	return r, nil
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

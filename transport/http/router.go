package http

import (
	_ "embed"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/human-tech/signatory/service"
)

//go:embed public/signer.html
var signerPage []byte

// SetupRouter sets up the Gin router.
func SetupRouter(svc *service.VerificationService, log *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	handlers := NewHandlers(svc, log)

	router.GET("/healthz", handlers.Health)
	router.GET("/signer.html", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", signerPage)
	})
	router.POST("/api/signature", handlers.Signature)

	return router
}

package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/campus-ops/roomdesk-api/internal/middleware"
	"github.com/campus-ops/roomdesk-api/internal/models"
)

func currentClaims(c *gin.Context) *models.JWTClaims {
	return middleware.ClaimsFromContext(c)
}

package handlers

import (
	"net/http"

	"sessionbook/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

func (h Handlers) ToggleWishlist(c *gin.Context) {
	sessionID, ok := pathParam(c, "sessionId")
	if !ok {
		return
	}
	svc := h.Wishlist
	svc.RequestID = middleware.GetRequestID(c)
	on, err := svc.Toggle(c.Request.Context(), middleware.UserID(c), sessionID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessionId": sessionID, "wishlisted": on})
}

func (h Handlers) ListWishlist(c *gin.Context) {
	svc := h.Wishlist
	svc.RequestID = middleware.GetRequestID(c)
	sessions, err := svc.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) BillingState(c *gin.Context) {
	state, err := s.subscriptionSvc.State(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": state})
}

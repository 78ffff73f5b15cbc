package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	orderdomain "github.com/smallbiznis/comercia/internal/order/domain"
)

func (s *Server) Checkout(c *gin.Context) {
	var req orderdomain.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.orderSvc.Checkout(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":          true,
		"orderId":     resp.OrderID,
		"orderNumber": resp.OrderNumber,
		"total":       resp.Total,
	})
}

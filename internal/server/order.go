package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/comercia/internal/clock"
	orderdomain "github.com/smallbiznis/comercia/internal/order/domain"
	"github.com/smallbiznis/comercia/pkg/db/pagination"
)

func (s *Server) ListOrders(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Day string `form:"day"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req := orderdomain.ListOrdersRequest{
		PageToken: query.PageToken,
		PageSize:  query.PageSize,
	}
	if raw := strings.TrimSpace(query.Day); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
		if err != nil {
			AbortWithError(c, newValidationError("day", "invalid_day", "invalid day"))
			return
		}
		day := clock.StartOfDayUTC(parsed)
		req.Day = &day
	}

	resp, err := s.orderSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetOrder(c *gin.Context) {
	resp, err := s.orderSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

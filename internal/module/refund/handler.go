package refund

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/payflow/server/internal/shared/response"
)

// Handler handles HTTP requests for refunds.
type Handler struct {
	service *Service
}

// NewHandler creates a new refund handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers refund routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	refunds := r.Group("/refunds")
	{
		refunds.POST("", h.CreateRefund)
		refunds.GET("", h.ListRefunds)
		refunds.GET("/:id", h.GetRefund)
	}
}

// CreateRefund creates a refund against a payment.
func (h *Handler) CreateRefund(c *gin.Context) {
	var req CreateRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	r, err := h.service.Create(c.Request.Context(), req.PaymentID, req.Amount, req.Metadata)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"refund": ToResponse(r)})
}

// GetRefund returns a refund by id.
func (h *Handler) GetRefund(c *gin.Context) {
	r, err := h.service.Get(c.Param("id"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"refund": ToResponse(r)})
}

// ListRefunds returns refunds, optionally filtered by payment_id.
func (h *Handler) ListRefunds(c *gin.Context) {
	refunds := h.service.List(c.Query("payment_id"))

	out := make([]*RefundResponse, 0, len(refunds))
	for _, r := range refunds {
		out = append(out, ToResponse(r))
	}
	c.JSON(http.StatusOK, gin.H{"refunds": out, "total": len(out)})
}

package payment

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/payflow/server/internal/shared/response"
)

// Handler handles HTTP requests for payments.
type Handler struct {
	service *Service
}

// NewHandler creates a new payment handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers payment routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	payments := r.Group("/payments")
	{
		payments.POST("", h.CreatePayment)
		payments.GET("", h.ListPayments)
		payments.GET("/:id", h.GetPayment)
		payments.GET("/:id/live", h.GetLiveStatus)
	}
}

// CreatePayment creates a payment.
func (h *Handler) CreatePayment(c *gin.Context) {
	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	amount, err := ToMinorUnits(req.Amount, req.Currency)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	p, err := h.service.Create(c.Request.Context(), CreateParams{
		Amount:     amount,
		Currency:   req.Currency,
		CustomerID: req.CustomerID,
		Metadata:   req.Metadata,
		TestMode:   req.TestMode,
	})
	if err != nil {
		response.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"payment": ToResponse(p)})
}

// GetPayment returns a payment by id.
func (h *Handler) GetPayment(c *gin.Context) {
	p, err := h.service.Get(c.Param("id"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": ToResponse(p)})
}

// GetLiveStatus syncs the payment's status from the provider and returns it.
func (h *Handler) GetLiveStatus(c *gin.Context) {
	p, err := h.service.GetLiveStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": ToResponse(p)})
}

// ListPayments returns payments, optionally filtered by customer_id.
func (h *Handler) ListPayments(c *gin.Context) {
	payments := h.service.List(c.Query("customer_id"))

	out := make([]*PaymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, ToResponse(p))
	}
	c.JSON(http.StatusOK, gin.H{"payments": out, "total": len(out)})
}

package subscription

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/payflow/server/internal/shared/response"
)

// Handler handles HTTP requests for subscriptions.
type Handler struct {
	service *Service
}

// NewHandler creates a new subscription handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers subscription routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	subs := r.Group("/subscriptions")
	{
		subs.POST("", h.CreateSubscription)
		subs.GET("", h.ListSubscriptions)
		subs.GET("/:id", h.GetSubscription)
	}
}

// CreateSubscription creates a subscription.
func (h *Handler) CreateSubscription(c *gin.Context) {
	var req CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	sub, err := h.service.Create(c.Request.Context(), req.CustomerID, req.PriceID, req.TrialPeriodDays)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"subscription": ToResponse(sub)})
}

// GetSubscription returns a subscription by id.
func (h *Handler) GetSubscription(c *gin.Context) {
	sub, err := h.service.Get(c.Param("id"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscription": ToResponse(sub)})
}

// ListSubscriptions returns subscriptions, optionally filtered by
// customer_id.
func (h *Handler) ListSubscriptions(c *gin.Context) {
	subs := h.service.List(c.Query("customer_id"))

	out := make([]*SubscriptionResponse, 0, len(subs))
	for _, s := range subs {
		out = append(out, ToResponse(s))
	}
	c.JSON(http.StatusOK, gin.H{"subscriptions": out, "total": len(out)})
}

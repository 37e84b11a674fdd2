// README: Delivery handlers for quote, place, get, and state transitions.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"courier/internal/modules/delivery"
	"courier/internal/types"
)

type DeliveryHandler struct {
	delivery *delivery.Service
}

func NewDeliveryHandler(svc *delivery.Service) *DeliveryHandler {
	return &DeliveryHandler{delivery: svc}
}

type quoteReq struct {
	UserID          string  `json:"user_id" binding:"required"`
	AccountType     string  `json:"account_type"`
	PickupLat       float64 `json:"pickup_lat"`
	PickupLng       float64 `json:"pickup_lng"`
	DropoffLat      float64 `json:"dropoff_lat"`
	DropoffLng      float64 `json:"dropoff_lng"`
	PackageSize     string  `json:"package_size"`
	DistanceKm      float64 `json:"distance_km"`
	DurationMinutes float64 `json:"duration_minutes"`
	CouponCode      string  `json:"coupon_code"`
}

func (r quoteReq) command() delivery.QuoteCommand {
	return delivery.QuoteCommand{
		UserID:          types.ID(r.UserID),
		AccountType:     r.AccountType,
		Pickup:          types.Point{Lat: r.PickupLat, Lng: r.PickupLng},
		Dropoff:         types.Point{Lat: r.DropoffLat, Lng: r.DropoffLng},
		PackageSize:     r.PackageSize,
		DistanceKm:      r.DistanceKm,
		DurationMinutes: r.DurationMinutes,
		CouponCode:      r.CouponCode,
	}
}

func (h *DeliveryHandler) Quote(c *gin.Context) {
	var req quoteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	res, err := h.delivery.Quote(c.Request.Context(), req.command())
	if err != nil {
		writeDeliveryError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"fare": res.Fare, "coupon": res.Coupon})
}

func (h *DeliveryHandler) Place(c *gin.Context) {
	var req quoteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	res, err := h.delivery.Place(c.Request.Context(), req.command())
	if err != nil {
		writeDeliveryError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, map[string]any{
		"delivery_id":    res.Delivery.ID,
		"status":         res.Delivery.Status,
		"fare":           res.Fare,
		"coupon":         res.Coupon,
		"discount_cents": res.Delivery.DiscountCents,
		"total":          res.Delivery.Total(),
	})
}

func (h *DeliveryHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing delivery id")
		return
	}
	d, err := h.delivery.Get(c.Request.Context(), types.ID(id))
	if err != nil {
		writeDeliveryError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{
		"delivery_id":    d.ID,
		"status":         d.Status,
		"fare_cents":     d.FareCents,
		"discount_cents": d.DiscountCents,
		"total":          d.Total(),
	})
}

func (h *DeliveryHandler) Cancel(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing delivery id")
		return
	}
	err := h.delivery.Cancel(c.Request.Context(), delivery.CancelCommand{
		DeliveryID: types.ID(id),
		ActorType:  "customer",
		Reason:     c.Query("reason"),
	})
	if err != nil {
		writeDeliveryError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"delivery_id": id, "status": delivery.StatusCancelled})
}

func (h *DeliveryHandler) Pickup(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing delivery id")
		return
	}
	if err := h.delivery.MarkPickedUp(c.Request.Context(), types.ID(id)); err != nil {
		writeDeliveryError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"delivery_id": id, "status": delivery.StatusPickedUp})
}

func (h *DeliveryHandler) Deliver(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing delivery id")
		return
	}
	if err := h.delivery.MarkDelivered(c.Request.Context(), types.ID(id)); err != nil {
		writeDeliveryError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"delivery_id": id, "status": delivery.StatusDelivered})
}

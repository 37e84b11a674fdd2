// README: Coupon handlers for validate, redeem, and operator management.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"courier/internal/modules/coupon"
	"courier/internal/types"
)

type CouponHandler struct {
	coupons *coupon.Service
}

func NewCouponHandler(svc *coupon.Service) *CouponHandler {
	return &CouponHandler{coupons: svc}
}

type validateCouponReq struct {
	Code             string `json:"code" binding:"required"`
	UserID           string `json:"user_id" binding:"required"`
	AccountType      string `json:"account_type"`
	OrderAmountCents int64  `json:"order_amount_cents"`
	BaseFareCents    int64  `json:"base_fare_cents"`
}

func (h *CouponHandler) Validate(c *gin.Context) {
	var req validateCouponReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.OrderAmountCents < 0 {
		writeError(c, http.StatusBadRequest, "order_amount_cents must not be negative")
		return
	}
	res, err := h.coupons.Validate(c.Request.Context(), coupon.ValidateCommand{
		Code:             req.Code,
		UserID:           types.ID(req.UserID),
		AccountType:      req.AccountType,
		OrderAmountCents: req.OrderAmountCents,
		BaseFareCents:    req.BaseFareCents,
	})
	if err != nil {
		writeCouponError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, res)
}

type redeemCouponReq struct {
	Code             string `json:"code" binding:"required"`
	UserID           string `json:"user_id" binding:"required"`
	OrderID          string `json:"order_id" binding:"required"`
	AccountType      string `json:"account_type"`
	OrderAmountCents int64  `json:"order_amount_cents"`
	BaseFareCents    int64  `json:"base_fare_cents"`
}

func (h *CouponHandler) Redeem(c *gin.Context) {
	var req redeemCouponReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.OrderAmountCents < 0 {
		writeError(c, http.StatusBadRequest, "order_amount_cents must not be negative")
		return
	}
	res, err := h.coupons.Redeem(c.Request.Context(), coupon.RedeemCommand{
		Code:             req.Code,
		UserID:           types.ID(req.UserID),
		OrderID:          types.ID(req.OrderID),
		AccountType:      req.AccountType,
		OrderAmountCents: req.OrderAmountCents,
		BaseFareCents:    req.BaseFareCents,
	})
	if err != nil {
		writeCouponError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, res)
}

type createCouponReq struct {
	Code                string     `json:"code" binding:"required"`
	DiscountType        string     `json:"discount_type" binding:"required"`
	DiscountValue       int64      `json:"discount_value"`
	ExpiresAt           *time.Time `json:"expires_at"`
	MaxUsesTotal        *int       `json:"max_uses_total"`
	MaxUsesPerUser      *int       `json:"max_uses_per_user"`
	AccountTypes        []string   `json:"account_types"`
	UserIDs             []string   `json:"user_ids"`
	MinOrderAmountCents int64      `json:"min_order_amount_cents"`
	CreatedBy           string     `json:"created_by"`
}

func (h *CouponHandler) Create(c *gin.Context) {
	var req createCouponReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	switch coupon.DiscountType(req.DiscountType) {
	case coupon.DiscountPercentage, coupon.DiscountFixedAmount, coupon.DiscountFreeDelivery:
	default:
		writeError(c, http.StatusBadRequest, "unknown discount_type")
		return
	}
	cp := &coupon.Coupon{
		Code:                req.Code,
		DiscountType:        coupon.DiscountType(req.DiscountType),
		DiscountValue:       req.DiscountValue,
		ExpiresAt:           req.ExpiresAt,
		MaxUsesTotal:        req.MaxUsesTotal,
		MaxUsesPerUser:      req.MaxUsesPerUser,
		AccountTypes:        req.AccountTypes,
		UserIDs:             req.UserIDs,
		MinOrderAmountCents: req.MinOrderAmountCents,
		Active:              true,
		CreatedBy:           req.CreatedBy,
	}
	if err := h.coupons.Create(c.Request.Context(), cp); err != nil {
		writeCouponError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, cp)
}

type setActiveReq struct {
	Active *bool `json:"active" binding:"required"`
}

func (h *CouponHandler) SetActive(c *gin.Context) {
	code := c.Param("code")
	var req setActiveReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.coupons.SetActive(c.Request.Context(), code, *req.Active); err != nil {
		writeCouponError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"code": coupon.NormalizeCode(code), "active": *req.Active})
}

func (h *CouponHandler) Get(c *gin.Context) {
	cp, err := h.coupons.ByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		writeCouponError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, cp)
}

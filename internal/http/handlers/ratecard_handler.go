// README: Rate card handlers for publish and lookup.
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"courier/internal/modules/ratecard"
)

type RateCardHandler struct {
	ratecards *ratecard.Service
}

func NewRateCardHandler(svc *ratecard.Service) *RateCardHandler {
	return &RateCardHandler{ratecards: svc}
}

type publishRateCardReq struct {
	EffectiveFrom   *time.Time         `json:"effective_from"`
	Currency        string             `json:"currency" binding:"required"`
	BaseFareCents   int64              `json:"base_fare_cents"`
	PerKmCents      int64              `json:"per_km_cents"`
	PerMinCents     int64              `json:"per_min_cents"`
	MinFareCents    int64              `json:"min_fare_cents"`
	SizeMultipliers map[string]float64 `json:"size_multipliers" binding:"required"`
	Bands           []ratecard.Band    `json:"bands" binding:"required"`
	TaxEnabled      bool               `json:"tax_enabled"`
	TaxRate         float64            `json:"tax_rate"`
}

func (h *RateCardHandler) Publish(c *gin.Context) {
	var req publishRateCardReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	card := &ratecard.RateCard{
		Currency:        req.Currency,
		BaseFareCents:   req.BaseFareCents,
		PerKmCents:      req.PerKmCents,
		PerMinCents:     req.PerMinCents,
		MinFareCents:    req.MinFareCents,
		SizeMultipliers: req.SizeMultipliers,
		Bands:           req.Bands,
		TaxEnabled:      req.TaxEnabled,
		TaxRate:         req.TaxRate,
	}
	if req.EffectiveFrom != nil {
		card.EffectiveFrom = *req.EffectiveFrom
	}
	if err := h.ratecards.Publish(c.Request.Context(), card); err != nil {
		writeRateCardError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, card)
}

func (h *RateCardHandler) Active(c *gin.Context) {
	card, err := h.ratecards.Active(c.Request.Context())
	if err != nil {
		writeRateCardError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, card)
}

func (h *RateCardHandler) ByVersion(c *gin.Context) {
	version, err := strconv.Atoi(c.Param("version"))
	if err != nil || version < 1 {
		writeError(c, http.StatusBadRequest, "invalid version")
		return
	}
	card, err := h.ratecards.ByVersion(c.Request.Context(), version)
	if err != nil {
		writeRateCardError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, card)
}

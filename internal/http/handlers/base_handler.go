// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"courier/internal/modules/coupon"
	"courier/internal/modules/delivery"
	"courier/internal/modules/fare"
	"courier/internal/modules/ratecard"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func writeDeliveryError(c *gin.Context, err error) {
	switch err {
	case delivery.ErrBadRequest, fare.ErrInvalidInput:
		writeError(c, http.StatusBadRequest, err.Error())
	case delivery.ErrNotFound:
		writeError(c, http.StatusNotFound, err.Error())
	case delivery.ErrInvalidState, delivery.ErrConflict:
		writeError(c, http.StatusConflict, err.Error())
	case coupon.ErrReservationFailed:
		writeError(c, http.StatusServiceUnavailable, err.Error())
	case ratecard.ErrBadConfig, ratecard.ErrNotFound:
		// Pricing config faults halt the request; nothing to guess here.
		writeError(c, http.StatusInternalServerError, "pricing configuration unavailable")
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeCouponError(c *gin.Context, err error) {
	switch err {
	case coupon.ErrNotFound:
		writeError(c, http.StatusNotFound, err.Error())
	case coupon.ErrCodeTaken:
		writeError(c, http.StatusConflict, err.Error())
	case coupon.ErrReservationFailed:
		writeError(c, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeRateCardError(c *gin.Context, err error) {
	switch err {
	case ratecard.ErrBadConfig:
		writeError(c, http.StatusBadRequest, err.Error())
	case ratecard.ErrNotFound:
		writeError(c, http.StatusNotFound, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

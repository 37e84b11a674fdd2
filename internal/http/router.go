// README: HTTP router registration; wires module services to gin routes.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"courier/internal/http/handlers"
	"courier/internal/http/middleware"
	"courier/internal/modules/coupon"
	"courier/internal/modules/delivery"
	"courier/internal/modules/ratecard"
)

type RouterDeps struct {
	Delivery  *delivery.Service
	Coupons   *coupon.Service
	RateCards *ratecard.Service
	Log       *logrus.Logger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(deps.Log))
	r.Use(middleware.Recovery(deps.Log))

	deliveryHandler := handlers.NewDeliveryHandler(deps.Delivery)
	couponHandler := handlers.NewCouponHandler(deps.Coupons)
	rateCardHandler := handlers.NewRateCardHandler(deps.RateCards)

	api := r.Group("/api/v1")
	{
		api.POST("/quotes", deliveryHandler.Quote)

		api.POST("/deliveries", deliveryHandler.Place)
		api.GET("/deliveries/:id", deliveryHandler.Get)
		api.POST("/deliveries/:id/cancel", deliveryHandler.Cancel)
		api.POST("/deliveries/:id/pickup", deliveryHandler.Pickup)
		api.POST("/deliveries/:id/deliver", deliveryHandler.Deliver)

		api.POST("/coupons/validate", couponHandler.Validate)
		api.POST("/coupons/redeem", couponHandler.Redeem)
		api.POST("/coupons", couponHandler.Create)
		api.GET("/coupons/:code", couponHandler.Get)
		api.PATCH("/coupons/:code/active", couponHandler.SetActive)

		api.POST("/ratecards", rateCardHandler.Publish)
		api.GET("/ratecards/active", rateCardHandler.Active)
		api.GET("/ratecards/versions/:version", rateCardHandler.ByVersion)
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	return r
}

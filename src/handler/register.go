package handler

import (
	"context"
	"reflect"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Services are the application services the routes delegate to.
type Services struct {
	Networks NetworkLister
	Planner  AccountPlanner
	Recovery RecoveryEnabler
	Tracker  StatusReader
}

func RegisterValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
			if value, ok := field.Interface().(decimal.Decimal); ok {
				return value.String()
			}
			return nil
		}, decimal.Decimal{})
	}
}

func RegisterRoutes(ctx context.Context, router *gin.Engine, services Services, apiSecret string) {
	RegisterValidators()

	SetMiddlewares(ctx, router)

	router.GET("/health", HandleHealthCheck)

	executionHandler := NewExecutionHandler()
	networkHandler := NewNetworkHandler(services.Networks)
	accountHandler := NewAccountHandler(services.Planner)
	recoveryHandler := NewRecoveryHandler(services.Recovery)
	userOpHandler := NewUserOperationHandler(services.Tracker)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", HandleHealthCheck)
		v1.GET("/networks", networkHandler.ListNetworks)

		v1.POST("/executions/encode", executionHandler.Encode)
		v1.POST("/executions/decode", executionHandler.Decode)

		v1.POST("/accounts/plan", accountHandler.Plan())

		// spends the server owner key, so callers must share the API secret
		v1.POST("/recovery/enable", SharedSecretMiddleware(apiSecret), recoveryHandler.EnableRecovery)

		v1.GET("/userops/:hash", userOpHandler.GetStatus)
	}
}

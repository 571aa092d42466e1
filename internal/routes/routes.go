package routes

import (
	_ "orgmarket_backend/docs"
	"orgmarket_backend/internal/handlers"
	"orgmarket_backend/internal/logger"
	"orgmarket_backend/ws"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// RegisterRoutes регистрирует все HTTP и WebSocket маршруты.
// authMW проверяет access токен, authLimiter ограничивает публичные ручки авторизации.
func RegisterRoutes(
	ginRouter *gin.Engine,
	appHandlers *handlers.AppHandlers,
	wsHandler *ws.WebSocketHandler,
	authMW gin.HandlerFunc,
	authLimiter gin.HandlerFunc,
) {
	api := ginRouter.Group("")
	{
		appHandlers.AuthHandler.RegisterRoutes(api, authMW, authLimiter)
		appHandlers.ProfileHandler.RegisterRoutes(api, authMW)
		appHandlers.OrganizationHandler.RegisterRoutes(api, authMW)
		appHandlers.OrderHandler.RegisterRoutes(api, authMW)
		appHandlers.CatalogHandler.RegisterRoutes(api, authMW)
		appHandlers.NotificationHandler.RegisterRoutes(api, authMW)
		appHandlers.ChatHandler.RegisterRoutes(api, authMW)
	}

	ginRouter.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// токен websocket проверяется в самом хэндлере: браузер не ставит заголовки
	wsHandler.RegisterRoutes(ginRouter)
	logger.Info("Routes registered", "websocket", "/ws/notifications/:user_id/, /ws/chat/:room_id/")
}

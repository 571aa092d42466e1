// @title           orgmarket API
// @version         1.0
// @description     API площадки организаций: заказы, каталог, сотрудники, чат и уведомления.
// @host            localhost:4000
// @BasePath        /

// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization

package main

import "orgmarket_backend/internal/app"

func main() {
	app.Run()
}

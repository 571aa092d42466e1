package contextkeys

// Используем кастомный тип, чтобы избежать коллизий
type contextKey string

const (
	// DBContextKey - ключ, по которому в gin.Context лежит *gorm.DB запроса
	DBContextKey = contextKey("db")

	// UserIDKey и ClaimsKey ставит AuthMiddleware
	UserIDKey = "userID"
	ClaimsKey = "claims"
)

package middleware

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var DefaultCORSOrigins = []string{
	"http://localhost:8000",
	"http://localhost:3000",
	"http://localhost:5173",
	"http://127.0.0.1:8000",
	"http://127.0.0.1:3000",
	"http://127.0.0.1:5173",
}

func CORS(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		origins = DefaultCORSOrigins
	}
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "X-Request-Id"},
		ExposeHeaders:    []string{"Location", "Retry-After", "X-Request-Id", "X-Trace-Id"},
		AllowCredentials: true,
	})
}

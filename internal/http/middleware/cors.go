package middleware

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// DefaultCORSOrigins covers the local dashboard and extension dev servers.
var DefaultCORSOrigins = []string{
	"http://localhost:80",
	"http://localhost:3000",
	"http://localhost:5174",
	"http://localhost:5173",
	"http://127.0.0.1:80",
	"http://127.0.0.1:3000",
	"http://127.0.0.1:5174",
	"http://127.0.0.1:5173",
}

func CORS(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		origins = DefaultCORSOrigins
	}
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "Idempotency-Key", HeaderRequestID, HeaderTraceID},
		ExposeHeaders:    []string{HeaderRequestID, HeaderTraceID},
		AllowCredentials: true,
	})
}

package main

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"charm-cutvar/internal/api/handlers"
	"charm-cutvar/internal/api/middleware"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}
	if os.Getenv("API_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())

	extractHandler := handlers.NewExtractHandler()
	validateHandler := handlers.NewValidateHandler()
	functionsHandler := handlers.NewFunctionsHandler()

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		v1.POST("/extract", extractHandler.Run)
		v1.POST("/validate", validateHandler.Validate)
		v1.GET("/functions", functionsHandler.List)
	}

	handler := cors.Default().Handler(router)

	log.Info().Str("port", port).Msg("extraction API listening")
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

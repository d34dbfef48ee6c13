package main

import (
	"context"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"spotmap/config"
	"spotmap/db"
	"spotmap/routes"
	"spotmap/services"
	"spotmap/storage"
)

func main() {
	// Optional in production; environment variables win either way.
	_ = godotenv.Load()

	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Read()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		log = log.Level(level)
	}

	gdb, err := db.Connect(cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}
	log.Info().Msg("database migrated")

	google, err := services.NewGoogleAuth(context.Background(), cfg.Auth)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up Google auth")
	}

	store := storage.NewDiskStore(cfg.Uploads, log)
	markerSvc := services.NewMarkerService(gdb, store, log)
	authSvc := services.NewAuthService(gdb, google, cfg.Auth, log)

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowOrigins = cfg.Server.AllowedOrigins
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	router.Use(cors.New(corsCfg))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	routes.AuthRoutes(router, authSvc, cfg.Auth.JWTSecret)
	routes.MarkerRoutes(router, markerSvc, cfg.Auth.JWTSecret)
	routes.ImageRoutes(router, store)

	log.Info().Str("port", cfg.Server.Port).Msg("server starting")
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

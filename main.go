package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/VictorBagz/KBR/handlers"
	"github.com/VictorBagz/KBR/middleware"
	"github.com/VictorBagz/KBR/models"
	"github.com/VictorBagz/KBR/services"
	"github.com/VictorBagz/KBR/utils"
	"github.com/VictorBagz/KBR/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024, // 10MB — image uploads only
	})

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		log.Println("⚠️  ALLOWED_ORIGINS not set, using default: http://localhost:3000")
		allowedOrigins = "http://localhost:3000"
	}
	origins := strings.Split(allowedOrigins, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(origins, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, Cache-Control",
		ExposeHeaders:    "Content-Length, Content-Type",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Team{},
		&models.LiveMatch{},
		&models.MatchEvent{},
		&models.NewsItem{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	uploader, err := utils.NewUploader(ctx)
	if err != nil {
		log.Fatal("failed to initialize R2 uploader:", err)
	}

	authServiceURL := os.Getenv("AUTH_SERVICE_URL")
	if authServiceURL == "" {
		log.Fatal("AUTH_SERVICE_URL environment variable not set")
	}
	authServiceToken := os.Getenv("AUTH_SERVICE_TOKEN")
	if authServiceToken == "" {
		log.Fatal("AUTH_SERVICE_TOKEN environment variable not set")
	}
	authClient := services.NewAuthServiceClient(authServiceURL, authServiceToken)

	broker := services.NewChangeBroker()
	defer broker.Close()

	matchService := services.NewLiveMatchService(db, broker)
	scoringService := services.NewScoringService(db, broker)
	clock := workers.NewMatchClock(matchService)
	controlService := services.NewLiveControlService(matchService, clock)
	feedService := services.NewLiveFeedService(matchService, broker)
	newsService := services.NewNewsService(db, uploader)
	teamService := services.NewTeamService(db, uploader)

	sched, err := services.StartSchedulers(newsService, matchService)
	if err != nil {
		log.Fatal("failed to start schedulers:", err)
	}
	defer func() { _ = sched.Shutdown() }()

	secured := app.Group("/admin", middleware.SessionAuthMiddleware(authClient), middleware.RequireAdmin())

	handlers.SetupLiveRoutes(app, matchService, scoringService, controlService, feedService, secured)
	handlers.SetupNewsRoutes(app, newsService, secured)
	handlers.SetupTeamRoutes(app, teamService, secured)
	handlers.SetupUploadRoutes(secured, uploader)

	port := os.Getenv("PORT")
	if port == "" {
		port = "5300"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", port)
	log.Println("✅ Publish/provision schedulers running (every 1m)")
	log.Printf("✅ CORS configured for origins: %s", strings.Join(origins, ","))

	<-ctx.Done()
	log.Println("Shutting down server...")
	clock.ResetLocal()
	if err := app.Shutdown(); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

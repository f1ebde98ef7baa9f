package handlers

import (
	"github.com/VictorBagz/KBR/services"

	"github.com/gofiber/fiber/v2"
)

// SetupNewsRoutes registers public article reads and admin article CRUD.
func SetupNewsRoutes(app *fiber.App, news *services.NewsService, secured fiber.Router) {
	app.Get("/news", news.GetNews)
	app.Get("/news/:slug", news.GetNewsItem)

	secured.Get("/news/all", news.GetAllNews)
	secured.Post("/news", news.CreateNews)
	secured.Put("/news/:id", news.UpdateNews)
	secured.Delete("/news/:id", news.DeleteNews)
}

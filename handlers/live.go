package handlers

import (
	"github.com/VictorBagz/KBR/services"

	"github.com/gofiber/fiber/v2"
)

// SetupLiveRoutes registers the match-center endpoints: public reads and the
// viewer SSE stream, plus the operator command surface behind auth.
func SetupLiveRoutes(
	app *fiber.App,
	matches *services.LiveMatchService,
	scoring *services.ScoringService,
	control *services.LiveControlService,
	feed *services.LiveFeedService,
	secured fiber.Router,
) {
	// Public viewer routes
	app.Get("/live/featured", matches.GetFeatured)
	app.Get("/live/stream", feed.StreamMatchSSE)
	app.Get("/matches", matches.GetAllMatches)
	app.Get("/live/matches/:id/scorers", scoring.GetScorers)

	// Operator routes
	secured.Post("/live/ensure", matches.EnsureLive)
	secured.Get("/live/clock", control.ClockState)

	secured.Post("/live/matches", matches.CreateMatchHandler)
	secured.Patch("/live/matches/:id", matches.UpdateMatchHandler)
	secured.Delete("/live/matches/:id", matches.DeleteMatchHandler)

	secured.Post("/live/matches/:id/start", control.StartMatch)
	secured.Post("/live/matches/:id/pause", control.PauseMatch)
	secured.Post("/live/matches/:id/end", control.EndMatch)
	secured.Post("/live/matches/:id/reset", control.ResetMatch)
	secured.Patch("/live/matches/:id/clock", control.SetClock)

	secured.Post("/live/matches/:id/events", scoring.AddEvent)
	secured.Delete("/live/matches/:id/events/:event_id", scoring.RemoveEvent)
}

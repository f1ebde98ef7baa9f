package handlers

import (
	"github.com/VictorBagz/KBR/services"

	"github.com/gofiber/fiber/v2"
)

// SetupTeamRoutes registers the public team listing and admin team CRUD.
func SetupTeamRoutes(app *fiber.App, teams *services.TeamService, secured fiber.Router) {
	app.Get("/teams", teams.GetTeams)

	secured.Post("/teams", teams.CreateTeam)
	secured.Put("/teams/:id", teams.UpdateTeam)
	secured.Delete("/teams/:id", teams.DeleteTeam)
}

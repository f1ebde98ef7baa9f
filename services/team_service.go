package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/VictorBagz/KBR/models"
	"github.com/VictorBagz/KBR/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

// ErrTeamNotFound is returned when a team id matches nothing.
var ErrTeamNotFound = errors.New("team not found")

var titleCaser = cases.Title(language.English)

// NormalizeCategory title-cases a free-typed category ("men's rugby" ->
// "Men's Rugby") so display stays consistent across operators.
func NormalizeCategory(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	return titleCaser.String(strings.ToLower(raw))
}

// TeamService owns team CRUD. Teams are read-only collaborators from the
// live-match core's perspective; matches only hold references to them.
type TeamService struct {
	DB       *gorm.DB
	Uploader *utils.Uploader
}

func NewTeamService(db *gorm.DB, uploader *utils.Uploader) *TeamService {
	return &TeamService{DB: db, Uploader: uploader}
}

// ListTeams returns all teams ordered by name.
func (s *TeamService) ListTeams(ctx context.Context) ([]models.Team, error) {
	var teams []models.Team
	if err := s.DB.WithContext(ctx).Order("name ASC").Find(&teams).Error; err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	return teams, nil
}

// RemoveTeam deletes a team and nils out references from any match so that
// match records survive team deletion with a "TBC" side.
func (s *TeamService) RemoveTeam(ctx context.Context, id string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.LiveMatch{}).
			Where("home_team_id = ?", id).
			Update("home_team_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.LiveMatch{}).
			Where("away_team_id = ?", id).
			Update("away_team_id", nil).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Team{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrTeamNotFound
		}
		return nil
	})
}

// ---- HTTP handlers ----

// GetTeams serves the team listing.
func (s *TeamService) GetTeams(c *fiber.Ctx) error {
	teams, err := s.ListTeams(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list teams"})
	}
	return c.JSON(teams)
}

// CreateTeam registers a club side; an optional "logo" file goes to R2.
func (s *TeamService) CreateTeam(c *fiber.Ctx) error {
	name := strings.TrimSpace(c.FormValue("name"))
	if name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name is required"})
	}

	team := &models.Team{
		ID:         uuid.NewString(),
		Name:       name,
		Category:   NormalizeCategory(c.FormValue("category")),
		HomeGround: c.FormValue("home_ground"),
		LogoURL:    c.FormValue("logo_url"),
	}
	if team.Category == "" {
		team.Category = "Men"
	}

	if file, err := c.FormFile("logo"); err == nil && file.Size > 0 {
		url, err := s.Uploader.UploadImage(c.Context(), file, "teams")
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to upload logo"})
		}
		team.LogoURL = url
	}

	if err := s.DB.WithContext(c.Context()).Create(team).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create team"})
	}
	return c.Status(fiber.StatusCreated).JSON(team)
}

// UpdateTeam edits a team record.
func (s *TeamService) UpdateTeam(c *fiber.Ctx) error {
	id := c.Params("id")

	var team models.Team
	err := s.DB.WithContext(c.Context()).First(&team, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "team not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load team"})
	}

	if v := c.FormValue("name"); v != "" {
		team.Name = v
	}
	if v := c.FormValue("category"); v != "" {
		team.Category = NormalizeCategory(v)
	}
	if v := c.FormValue("home_ground"); v != "" {
		team.HomeGround = v
	}
	if v := c.FormValue("logo_url"); v != "" {
		team.LogoURL = v
	}

	if file, err := c.FormFile("logo"); err == nil && file.Size > 0 {
		url, err := s.Uploader.UploadImage(c.Context(), file, "teams")
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to upload logo"})
		}
		team.LogoURL = url
	}

	if err := s.DB.WithContext(c.Context()).Save(&team).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update team"})
	}
	return c.JSON(team)
}

// DeleteTeam removes a team, detaching it from any matches first.
func (s *TeamService) DeleteTeam(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := s.RemoveTeam(c.Context(), id); err != nil {
		if errors.Is(err, ErrTeamNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "team not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to delete team"})
	}
	return c.JSON(fiber.Map{"deleted": id})
}

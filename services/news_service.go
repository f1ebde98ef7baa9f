package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/VictorBagz/KBR/models"
	"github.com/VictorBagz/KBR/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// ErrNewsNotFound is returned when an article id or slug matches nothing.
var ErrNewsNotFound = errors.New("news item not found")

// NewsService owns article CRUD. Articles are simple data-entry records;
// the only behavior here is slug assignment, image upload and the
// draft/scheduled/published lifecycle driven by the publish scheduler.
type NewsService struct {
	DB       *gorm.DB
	Uploader *utils.Uploader
}

func NewNewsService(db *gorm.DB, uploader *utils.Uploader) *NewsService {
	return &NewsService{DB: db, Uploader: uploader}
}

// ListPublished returns published articles newest-first.
func (s *NewsService) ListPublished(ctx context.Context) ([]models.NewsItem, error) {
	var items []models.NewsItem
	err := s.DB.WithContext(ctx).
		Where("status = ?", models.NewsPublished).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list news: %w", err)
	}
	return items, nil
}

// GetBySlug loads one article by its URL slug.
func (s *NewsService) GetBySlug(ctx context.Context, slugOrID string) (*models.NewsItem, error) {
	var item models.NewsItem
	err := s.DB.WithContext(ctx).
		Where("slug = ? OR id = ?", slugOrID, slugOrID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNewsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load news item %s: %w", slugOrID, err)
	}
	return &item, nil
}

// PublishDue flips scheduled articles whose publish time has passed. Called
// by the scheduler every minute; returns how many were published.
func (s *NewsService) PublishDue(ctx context.Context, now time.Time) (int, error) {
	res := s.DB.WithContext(ctx).
		Model(&models.NewsItem{}).
		Where("status = ? AND publish_at <= ?", models.NewsScheduled, now).
		Updates(map[string]interface{}{"status": models.NewsPublished, "publish_at": nil})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to publish due news: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}

// ---- HTTP handlers ----

// GetNews serves the public article listing.
func (s *NewsService) GetNews(c *fiber.Ctx) error {
	items, err := s.ListPublished(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list news"})
	}
	return c.JSON(items)
}

// GetNewsItem serves one article. Missing articles render as an empty
// payload rather than a hard failure so article pages degrade gracefully.
func (s *NewsService) GetNewsItem(c *fiber.Ctx) error {
	item, err := s.GetBySlug(c.Context(), c.Params("slug"))
	if errors.Is(err, ErrNewsNotFound) {
		return c.JSON(fiber.Map{"item": nil})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load news item"})
	}
	return c.JSON(fiber.Map{"item": item})
}

// GetAllNews is the admin listing: every article regardless of status.
func (s *NewsService) GetAllNews(c *fiber.Ctx) error {
	var items []models.NewsItem
	if err := s.DB.WithContext(c.Context()).Order("created_at DESC").Find(&items).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list news"})
	}
	return c.JSON(items)
}

// CreateNews creates an article from the admin form. An optional "image"
// file is pushed to R2; the slug derives from the title.
func (s *NewsService) CreateNews(c *fiber.Ctx) error {
	title := strings.TrimSpace(c.FormValue("title"))
	if title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title is required"})
	}

	item := &models.NewsItem{
		ID:       uuid.NewString(),
		Title:    title,
		Slug:     slug.Make(title),
		Summary:  c.FormValue("summary"),
		Content:  c.FormValue("content"),
		Category: NormalizeCategory(c.FormValue("category")),
		Author:   c.FormValue("author"),
		ImageURL: c.FormValue("image_url"),
		Status:   models.NewsPublished,
	}

	if publishAtStr := c.FormValue("publish_at"); publishAtStr != "" {
		publishAt, err := time.Parse(time.RFC3339, publishAtStr)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid publish_at (use RFC3339)"})
		}
		item.Status = models.NewsScheduled
		item.PublishAt = &publishAt
	}

	if file, err := c.FormFile("image"); err == nil && file.Size > 0 {
		url, err := s.Uploader.UploadImage(c.Context(), file, "news")
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to upload image"})
		}
		item.ImageURL = url
	}

	if err := s.DB.WithContext(c.Context()).Create(item).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create news item"})
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// UpdateNews edits an article. The slug stays stable so published URLs
// survive title edits.
func (s *NewsService) UpdateNews(c *fiber.Ctx) error {
	id := c.Params("id")

	var item models.NewsItem
	err := s.DB.WithContext(c.Context()).First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "news item not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load news item"})
	}

	if v := c.FormValue("title"); v != "" {
		item.Title = v
	}
	if v := c.FormValue("summary"); v != "" {
		item.Summary = v
	}
	if v := c.FormValue("content"); v != "" {
		item.Content = v
	}
	if v := c.FormValue("category"); v != "" {
		item.Category = NormalizeCategory(v)
	}
	if v := c.FormValue("author"); v != "" {
		item.Author = v
	}
	if v := c.FormValue("image_url"); v != "" {
		item.ImageURL = v
	}

	if file, err := c.FormFile("image"); err == nil && file.Size > 0 {
		url, err := s.Uploader.UploadImage(c.Context(), file, "news")
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to upload image"})
		}
		item.ImageURL = url
	}

	if err := s.DB.WithContext(c.Context()).Save(&item).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update news item"})
	}
	return c.JSON(item)
}

// DeleteNews removes an article.
func (s *NewsService) DeleteNews(c *fiber.Ctx) error {
	id := c.Params("id")
	res := s.DB.WithContext(c.Context()).Where("id = ?", id).Delete(&models.NewsItem{})
	if res.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to delete news item"})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "news item not found"})
	}
	return c.JSON(fiber.Map{"deleted": id})
}

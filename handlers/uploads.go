package handlers

import (
	"github.com/VictorBagz/KBR/utils"

	"github.com/gofiber/fiber/v2"
)

// allowed upload folders; anything else is rejected so the bucket layout
// stays predictable.
var uploadFolders = map[string]bool{
	"news":  true,
	"teams": true,
}

// SetupUploadRoutes registers the standalone content-image upload endpoint
// used by the rich-text editor: multipart "file" plus a "folder" tag,
// returns the public CDN URL.
func SetupUploadRoutes(secured fiber.Router, uploader *utils.Uploader) {
	secured.Post("/uploads", func(c *fiber.Ctx) error {
		folder := c.FormValue("folder")
		if !uploadFolders[folder] {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "folder must be one of: news, teams"})
		}

		file, err := c.FormFile("file")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file is required"})
		}
		if file.Size > 10*1024*1024 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file too large (max 10MB)"})
		}

		url, err := uploader.UploadImage(c.Context(), file, folder)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to upload file"})
		}
		return c.JSON(fiber.Map{"url": url})
	})
}

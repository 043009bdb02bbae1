package routes

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/storeit/storeit/internal/thumbnail"
	"github.com/storeit/storeit/internal/web"
)

// RegisterFileRoutes exposes the thumbnail decision and file classification.
func RegisterFileRoutes(r fiber.Router) {
	r.Get("/thumbnail", func(c *fiber.Ctx) error {
		var in thumbnail.Input
		if err := c.QueryParser(&in); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		if strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMETextHTML) {
			return c.Render(web.PartialThumbnail, in)
		}
		return c.JSON(thumbnail.Render(in))
	})

	r.Get("/files/icon", func(c *fiber.Ctx) error {
		name := c.Query("name")
		if name == "" {
			return fiber.NewError(http.StatusBadRequest, "name is required")
		}
		kind := thumbnail.FileType(name)
		return c.JSON(fiber.Map{
			"type":      kind.Type,
			"extension": kind.Extension,
			"icon":      thumbnail.FileIcon(kind.Extension, kind.Type),
		})
	})
}

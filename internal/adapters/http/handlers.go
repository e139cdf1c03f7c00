package http

import (
	"fmt"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/mashup/internal/core/domain"
)

// maxQueryLength bounds the free-text search input.
const maxQueryLength = 200

// ArticlesHandler returns news articles for a 5-character postal code.
func ArticlesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		articles, err := deps.Articles.Lookup(c.UserContext(), c.Query("geo"))
		if err != nil {
			return errorFor(c, err)
		}
		return c.JSON(articles)
	}
}

// SearchHandler resolves a postal-code prefix or "City[, State]" to places.
func SearchHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := c.Query("q")
		if utf8.RuneCountInString(q) > maxQueryLength {
			return errorFor(c, fmt.Errorf("%w: query too long (max %d characters)", domain.ErrValidation, maxQueryLength))
		}

		places, err := deps.Places.Search(c.UserContext(), q)
		if err != nil {
			return errorFor(c, err)
		}
		return c.JSON(places)
	}
}

// UpdateHandler returns up to ten places inside the sw/ne viewport.
func UpdateHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		box, err := domain.ParseBoundingBox(c.Query("sw"), c.Query("ne"))
		if err != nil {
			return errorFor(c, err)
		}

		places, err := deps.Places.Viewport(c.UserContext(), box)
		if err != nil {
			return errorFor(c, err)
		}
		return c.JSON(places)
	}
}

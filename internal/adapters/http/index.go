package http

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/mashup/internal/core/domain"
)

//go:embed templates/index.html
var templatesFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templatesFS, "templates/index.html"))

// IndexHandler renders the map page with the API key embedded.
func IndexHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.APIKey == "" {
			return errorFor(c, fmt.Errorf("%w: API_KEY not set", domain.ErrConfiguration))
		}

		var buf bytes.Buffer
		if err := indexTemplate.Execute(&buf, struct{ Key string }{Key: deps.APIKey}); err != nil {
			return errorFor(c, err)
		}

		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.Send(buf.Bytes())
	}
}

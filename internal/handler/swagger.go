package handler

import (
	"fmt"

	"github.com/gofiber/fiber/v3"
)

const (
	swaggerSpecPath  = "/swagger/doc.yaml"
	swaggerUIVersion = "5"
)

// swaggerPage loads Swagger UI from the CDN and points it at the spec route.
var swaggerPage = fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>Catalog Service API</title>
<link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@%[1]s/swagger-ui.css"></head>
<body><div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@%[1]s/swagger-ui-bundle.js"></script>
<script>SwaggerUIBundle({url: %[2]q, dom_id: "#swagger-ui"});</script>
</body>
</html>`, swaggerUIVersion, swaggerSpecPath)

// RegisterSwagger serves the OpenAPI document and a Swagger UI page for it.
// The spec route is registered first so the wildcard does not shadow it.
func RegisterSwagger(router fiber.Router, spec []byte) {
	router.Get(swaggerSpecPath, func(c fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, "application/yaml")
		return c.Send(spec)
	})
	router.Get("/swagger/*", func(c fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.SendString(swaggerPage)
	})
}

package httpapi

import (
	_ "embed"
	"encoding/json"

	"github.com/gofiber/fiber/v2"
)

//go:embed openapi.json
var openAPIDoc []byte

const swaggerPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>Weather API</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
  <script>
    window.onload = () => {
      window.ui = SwaggerUIBundle({ url: "/api-docs/openapi.json", dom_id: "#swagger-ui" });
    };
  </script>
</body>
</html>`

// openAPIFor returns the embedded document with its server set to prefix.
func openAPIFor(prefix string) ([]byte, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal(openAPIDoc, &doc); err != nil {
		return nil, err
	}
	server := prefix
	if server == "" {
		server = "/"
	}
	doc["servers"] = []map[string]string{{"url": server}}
	return json.Marshal(doc)
}

// registerDocs serves the Swagger UI page and its OpenAPI 3.0 document.
func registerDocs(app *fiber.App, prefix string) {
	body, err := openAPIFor(prefix)
	if err != nil {
		// Embedded document; it must parse.
		panic(err)
	}

	app.Get("/api-docs", func(c *fiber.Ctx) error {
		c.Type("html", "utf-8")
		return c.SendString(swaggerPage)
	})
	app.Get("/api-docs/openapi.json", func(c *fiber.Ctx) error {
		c.Type("json", "utf-8")
		return c.Send(body)
	})
}

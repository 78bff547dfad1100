// Package swagger serves the medsupply OpenAPI contract and a Swagger UI
// page that renders it.
package swagger

import (
	"text/template"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	apicontract "github.com/tuanvumaihuynh/medsupply/api-contract"
)

const (
	docsPath = "/docs"
	specPath = "/docs/openapi.yml"

	swaggerUIVersion = "5.29.3"
)

var page = template.Must(template.New("docs").Parse(`<!DOCTYPE html>
<html lang="es">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>medsupply {{.Service}} API</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@{{.Version}}/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@{{.Version}}/swagger-ui-bundle.js" crossorigin></script>
<script>
  window.onload = () => {
    window.ui = SwaggerUIBundle({
      url: '{{.SpecURL}}',
      dom_id: '#swagger-ui',
      deepLinking: true,
      filter: '{{.Filter}}',
    });
  };
</script>
</body>
</html>
`))

// Register serves the docs page of service at /docs and the raw contract at
// /docs/openapi.yml. The page pre-filters the operations tagged with service.
func Register(r chi.Router, service string) {
	var b strings.Builder
	if err := page.Execute(&b, struct {
		Service, Version, SpecURL, Filter string
	}{
		Service: service,
		Version: swaggerUIVersion,
		SpecURL: specPath,
		Filter:  service,
	}); err != nil {
		panic(err)
	}
	html := []byte(b.String())

	r.Get(docsPath, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		//nolint:errcheck
		w.Write(html)
	})

	spec := apicontract.GetSpecBytes()
	r.Get(specPath, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		//nolint:errcheck
		w.Write(spec)
	})
}

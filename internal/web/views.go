// Package web renders the server-side HTML pages.
package web

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/gofiber/template/html/v2"

	"github.com/storeit/storeit/internal/authform"
	"github.com/storeit/storeit/internal/thumbnail"
)

//go:embed templates
var files embed.FS

// View names, relative to the templates directory without extension.
const (
	Layout           = "layouts/main"
	PageAuth         = "pages/auth"
	PageHome         = "pages/home"
	PartialThumbnail = "partials/thumbnail"
)

// NewViews returns the fiber html engine over the embedded templates. Pages
// are rendered with Layout; partials are rendered bare.
func NewViews() *html.Engine {
	sub, err := fs.Sub(files, "templates")
	if err != nil {
		panic(err)
	}
	engine := html.NewFileSystem(http.FS(sub), ".html")
	engine.AddFuncMap(map[string]interface{}{
		"thumbnail": func(in thumbnail.Input) thumbnail.View { return thumbnail.Render(in) },
		"fieldError": func(errs authform.FieldErrors, field string) string {
			return errs[field]
		},
	})
	return engine
}

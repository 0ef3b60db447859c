package server

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"yatube/internal/service"
	"yatube/internal/validation"

	"github.com/gofiber/template/html/v2"
)

//go:embed views
var viewsFS embed.FS

const baseLayout = "layouts/base"

// newViewEngine loads the embedded templates. Names are paths relative to the
// views directory without the extension, e.g. "posts/index".
func newViewEngine() (*html.Engine, error) {
	sub, err := fs.Sub(viewsFS, "views")
	if err != nil {
		return nil, err
	}
	engine := html.NewFileSystem(http.FS(sub), ".html")
	for name, fn := range templateFuncs() {
		engine.AddFunc(name, fn)
	}
	return engine, nil
}

func templateFuncs() map[string]any {
	return map[string]any{
		"linebreaksbr": linebreaksbr,
		"date": func(t time.Time) string {
			return t.Format("2 January 2006")
		},
		"media": func(rel string) string {
			return "/media/" + strings.TrimPrefix(rel, "/")
		},
		"webp": service.WebPPath,
		"fieldErrors": func(fe validation.FieldErrors, field string) []string {
			return fe[field]
		},
		"selected": func(groupID *uint, id uint) bool {
			return groupID != nil && *groupID == id
		},
	}
}

// linebreaksbr escapes text and turns newlines into <br>.
func linebreaksbr(text string) template.HTML {
	escaped := template.HTMLEscapeString(strings.ReplaceAll(text, "\r\n", "\n"))
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
}

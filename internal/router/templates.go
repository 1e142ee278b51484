package router

import (
	"fmt"
	"html/template"
	"io/fs"
	"net/url"
	"time"

	"darkweb/internal/utils"
	"darkweb/web"

	"github.com/gin-contrib/multitemplate"
)

// views maps handler template names to files under templates/.
var views = []string{
	"index.html",
	"user.html",
	"edit_profile.html",
	"edit_profile_admin.html",
	"post_write.html",
	"post_reply.html",
	"comment_write.html",
	"cleaning.html",
	"filedown.html",
	"error.html",
	"auth/login.html",
	"auth/register.html",
}

var funcMap = template.FuncMap{
	"markdown": utils.RenderMarkdown,
	"formatTime": func(t time.Time) string {
		if t.IsZero() {
			return "never"
		}
		return t.Format("2006-01-02 15:04")
	},
	"userURL": func(username string) string {
		return "/user/" + url.PathEscape(username)
	},
	"add": func(a, b int) int {
		return a + b
	},
}

// loadTemplates builds one template set per view: the layout, the shared
// partials and the view itself.
func loadTemplates(fsys fs.FS) (multitemplate.Renderer, error) {
	r := multitemplate.NewRenderer()
	for _, view := range views {
		tmpl, err := template.New("layout.html").Funcs(funcMap).ParseFS(fsys,
			"templates/layout.html",
			"templates/partials.html",
			"templates/"+view,
		)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", view, err)
		}
		r.Add(view, tmpl)
	}
	return r, nil
}

// LoadTemplates parses the embedded templates.
func LoadTemplates() (multitemplate.Renderer, error) {
	return loadTemplates(web.FS)
}

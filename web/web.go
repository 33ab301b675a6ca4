// Package web embeds the page templates and static assets.
package web

import (
	"embed"
	"io/fs"
	"net/http"

	html "github.com/gofiber/template/html/v2"
)

//go:embed templates static
var content embed.FS

// Engine parses every template under templates/; names are paths without the
// .html extension, e.g. "partials/header".
func Engine() *html.Engine {
	return html.NewFileSystem(http.FS(sub("templates")), ".html")
}

func Static() http.FileSystem {
	return http.FS(sub("static"))
}

func sub(dir string) fs.FS {
	f, err := fs.Sub(content, dir)
	if err != nil {
		// dir is a compile-time constant embedded above
		panic(err)
	}
	return f
}

package web

import (
	"embed"
	"html/template"
)

//go:embed templates/index.html
var templatesFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templatesFS, "templates/index.html"))

type pageData struct {
	UI    UI
	Turns []turnResponse
}

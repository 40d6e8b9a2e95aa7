// Package web embeds the page templates and static assets of the
// inventory UI.
package web

import (
	"embed"
	"io/fs"
	"log"
)

//go:embed static templates
var assets embed.FS

// StaticFS returns the stylesheet and script files.
func StaticFS() fs.FS {
	return sub("static")
}

// TemplatesFS returns the HTML page templates.
func TemplatesFS() fs.FS {
	return sub("templates")
}

func sub(dir string) fs.FS {
	fsys, err := fs.Sub(assets, dir)
	if err != nil {
		log.Fatalf("failed to open embedded %s directory: %v", dir, err)
	}
	return fsys
}

// Package web holds the embedded static assets.
package web

import (
	"embed"
	"io/fs"
)

//go:embed static
var assets embed.FS

// Static is the asset tree rooted at the static directory, so a file
// lives at "style.css" rather than "static/style.css".
var Static fs.FS

func init() {
	sub, err := fs.Sub(assets, "static")
	if err != nil {
		panic(err)
	}
	Static = sub
}

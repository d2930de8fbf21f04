// Package web provides the embedded static assets (the stylesheet used by
// the transcript pages) served at /static/.
package web

import (
	"embed"
	"io/fs"
)

//go:embed all:static
var staticFS embed.FS

// Static returns the static/ tree with the directory prefix stripped, ready
// for http.FileServerFS.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// Only possible if the embed pattern above changes.
		panic(err)
	}
	return sub
}

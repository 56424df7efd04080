package render

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed assets/*.js
var assetsFS embed.FS

// ThemeScriptPath is where published pages load the script that switches the
// document theme as blocks scroll into view.
const ThemeScriptPath = "/assets/site-theme.js"

// Assets serves the scripts published pages reference.
func Assets() http.FileSystem {
	sub, err := fs.Sub(assetsFS, "assets")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

package server

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// hiddenFiles are never served directly; admin.html is only reachable through the gated /admin.
var hiddenFiles = map[string]bool{
	"admin.html": true,
}

// Static serves files from dir. Extensionless paths resolve to the matching .html file
// (/about -> about.html). Dotfiles and hidden pages return 404.
func Static(dir string) http.Handler {
	fs := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clean := path.Clean("/" + r.URL.Path)
		base := path.Base(clean)
		if hiddenFiles[base] || hiddenFiles[base+".html"] || hasDotSegment(clean) {
			http.NotFound(w, r)
			return
		}
		if clean != "/" && path.Ext(clean) == "" {
			candidate := filepath.Join(dir, filepath.FromSlash(clean)+".html")
			if fi, err := os.Stat(candidate); err == nil && !fi.IsDir() {
				http.ServeFile(w, r, candidate)
				return
			}
		}
		fs.ServeHTTP(w, r)
	})
}

func hasDotSegment(p string) bool {
	for _, seg := range strings.Split(p, "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}

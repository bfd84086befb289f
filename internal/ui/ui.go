// Package ui serves the live gesture monitor page.
package ui

import (
	_ "embed"
	"html/template"
	"net/http"
	"net/url"
	"os/exec"
	"runtime"

	"github.com/sirupsen/logrus"
)

//go:embed monitor.html
var monitorHTML string

var tmpl = template.Must(template.New("monitor").Parse(monitorHTML))

// Handler serves the monitor page at "/" and 404s everything else
func Handler(version string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := tmpl.Execute(w, struct{ Version string }{version}); err != nil {
			logrus.WithError(err).Warn("UI: Failed to render monitor page")
		}
	})
}

// MonitorURL returns the page address for a server on addr. The token, if
// any, is carried in the query so the page can reach the API.
func MonitorURL(addr, token string) string {
	u := url.URL{Scheme: "http", Host: addr, Path: "/"}
	if token != "" {
		u.RawQuery = url.Values{"token": {token}}.Encode()
	}
	return u.String()
}

// OpenBrowser opens url in the default browser
func OpenBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

package analytics

import (
	"embed"
	"html/template"
	"io"
	"time"
)

//go:embed templates/dashboard.html
var templateFS embed.FS

var dashboardTmpl = template.Must(template.New("dashboard.html").Funcs(template.FuncMap{
	"duration": func(d time.Duration) string { return d.Round(time.Second).String() },
	"stamp":    func(t time.Time) string { return t.Format("2006-01-02 15:04:05 MST") },
}).ParseFS(templateFS, "templates/dashboard.html"))

// DashboardPage is the data rendered by RenderDashboard.
type DashboardPage struct {
	Summary   *Summary
	Window    int
	ExportURL string
}

// RenderDashboard writes the operator dashboard for page.
func RenderDashboard(w io.Writer, page DashboardPage) error {
	return dashboardTmpl.Execute(w, page)
}

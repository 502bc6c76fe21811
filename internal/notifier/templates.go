package notifier

import (
	"bytes"
	"embed"
	"html/template"
	"time"

	"github.com/aleister1102/releasewatch/internal/common"
	"github.com/aleister1102/releasewatch/internal/models"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var bodyTemplates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

type newFilesData struct {
	Files       []models.FileRecord
	SourceURL   string
	GeneratedAt string
}

type logDigestData struct {
	Log         string
	GeneratedAt string
}

func renderNewFiles(files []models.FileRecord, sourceURL string, now time.Time) (string, error) {
	return render("new_files.html.tmpl", newFilesData{
		Files:       files,
		SourceURL:   sourceURL,
		GeneratedAt: now.Format(GeneratedAtLayout),
	})
}

func renderLogDigest(log string, now time.Time) (string, error) {
	return render("log_digest.html.tmpl", logDigestData{
		Log:         log,
		GeneratedAt: now.Format(GeneratedAtLayout),
	})
}

func render(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := bodyTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", common.WrapErrorf(err, "failed to render %s", name)
	}
	return buf.String(), nil
}

// Package resume produces the resume artifact attached to each submission.
// A template-driven renderer tailors an HTML resume per posting and prints
// it to PDF; when no template is configured the base resume is used as-is.
package resume

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"go-jobpilot-automation/internal/browser"
	"go-jobpilot-automation/internal/models"

	"github.com/playwright-community/playwright-go"
)

// Renderer yields the resume path to submit for one posting.
type Renderer interface {
	Render(ctx context.Context, job *models.JobPosting) (string, error)
}

// Static always hands back the same pre-built resume file.
type Static struct {
	Path string
}

func (s Static) Render(ctx context.Context, job *models.JobPosting) (string, error) {
	if s.Path == "" {
		return "", fmt.Errorf("no base resume configured")
	}
	return s.Path, nil
}

// TailoringData is what the HTML template sees for one posting.
type TailoringData struct {
	JobTitle string
	Company  string
	Location string
	Source   string
}

// Tailored renders the HTML template with per-posting data and prints it
// to a PDF under outputDir.
type Tailored struct {
	templatePath string
	outputDir    string
	browser      *browser.Manager
}

func NewTailored(templatePath, outputDir string, mgr *browser.Manager) *Tailored {
	return &Tailored{
		templatePath: templatePath,
		outputDir:    outputDir,
		browser:      mgr,
	}
}

func (r *Tailored) Render(ctx context.Context, job *models.JobPosting) (string, error) {
	html, err := r.renderHTML(job)
	if err != nil {
		return "", err
	}

	pdfBytes, err := r.printPDF(html)
	if err != nil {
		return "", err
	}

	outputPath := filepath.Join(r.outputDir, fileName(job))
	if err := os.MkdirAll(r.outputDir, 0755); err != nil {
		return "", fmt.Errorf("could not create output directory: %w", err)
	}
	if err := os.WriteFile(outputPath, pdfBytes, 0644); err != nil {
		return "", fmt.Errorf("could not write resume pdf: %w", err)
	}
	return outputPath, nil
}

func (r *Tailored) renderHTML(job *models.JobPosting) (string, error) {
	funcMap := template.FuncMap{
		"join": strings.Join,
	}

	tmpl, err := template.New(filepath.Base(r.templatePath)).Funcs(funcMap).ParseFiles(r.templatePath)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	data := TailoringData{
		JobTitle: job.Title,
		Company:  job.Company,
		Location: job.Location,
		Source:   string(job.Source),
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

func (r *Tailored) printPDF(htmlContent string) ([]byte, error) {
	page, err := r.browser.NewPage()
	if err != nil {
		return nil, fmt.Errorf("could not create new page: %w", err)
	}
	defer page.Close()

	if err := page.SetContent(htmlContent, playwright.PageSetContentOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
	}); err != nil {
		return nil, fmt.Errorf("could not set page content: %w", err)
	}

	pdfBytes, err := page.PDF(playwright.PagePdfOptions{
		Format:          playwright.String("A4"),
		PrintBackground: playwright.Bool(true),
		Margin: &playwright.Margin{
			Top:    playwright.String("0"),
			Bottom: playwright.String("0"),
			Left:   playwright.String("0"),
			Right:  playwright.String("0"),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("could not generate PDF: %w", err)
	}
	return pdfBytes, nil
}

// fileName keeps artifact names filesystem-safe and unique per posting.
func fileName(job *models.JobPosting) string {
	id := job.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("resume_%s_%s.pdf", slugify(job.Company), id)
}

func slugify(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "company"
	}
	return b.String()
}

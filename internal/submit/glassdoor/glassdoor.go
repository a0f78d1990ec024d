package glassdoor

import (
	"context"
	"fmt"
	"log"
	"strings"

	"go-jobpilot-automation/internal/browser"
	"go-jobpilot-automation/internal/submit"

	"github.com/playwright-community/playwright-go"
)

// Applicator submits applications on glassdoor.com through a headless
// browser.
type Applicator struct {
	manager *browser.Manager
}

func NewApplicator(manager *browser.Manager) *Applicator {
	return &Applicator{manager: manager}
}

func (a *Applicator) Name() string {
	return "glassdoor"
}

func (a *Applicator) Submit(ctx context.Context, req submit.Request) error {
	page, err := a.manager.NewPage()
	if err != nil {
		return submit.Classify(err)
	}
	defer page.Close()

	log.Printf("📨 Submitting to %s at %s (glassdoor)", req.Posting.Title, req.Posting.Company)

	if _, err := page.Goto(req.Posting.URL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(30000),
	}); err != nil {
		return submit.Classify(err)
	}

	applyButton := page.Locator("button[data-test='applyButton']")
	if err := applyButton.Click(playwright.LocatorClickOptions{Timeout: playwright.Float(10000)}); err != nil {
		return submit.Classify(fmt.Errorf("apply button not found: %w", err))
	}

	fileInputs, _ := page.Locator("input[type='file']").All()
	if len(fileInputs) > 0 && req.ResumePath != "" {
		for _, input := range fileInputs {
			if err := input.SetInputFiles(req.ResumePath); err == nil {
				log.Printf("📎 Uploaded resume %s", req.ResumePath)
				break
			}
		}
	}

	//primary submit selector, then a text fallback
	submitButton := page.Locator("button[data-test='submitApplication']")
	if err := submitButton.Click(playwright.LocatorClickOptions{Timeout: playwright.Float(10000)}); err != nil {
		if ferr := a.clickSubmitFallback(page); ferr != nil {
			return submit.Classify(fmt.Errorf("submit button not found: %w", err))
		}
	}

	if err := ctx.Err(); err != nil {
		return submit.Classify(err)
	}

	log.Printf("✅ Applied to %s at %s", req.Posting.Title, req.Posting.Company)
	return nil
}

func (a *Applicator) clickSubmitFallback(page playwright.Page) error {
	buttons, err := page.Locator("button").All()
	if err != nil {
		return err
	}
	for _, btn := range buttons {
		text, err := btn.TextContent()
		if err != nil {
			continue
		}
		lower := strings.ToLower(text)
		if strings.Contains(lower, "submit") || strings.Contains(lower, "apply") {
			return btn.Click()
		}
	}
	return fmt.Errorf("no submit-like button on page")
}

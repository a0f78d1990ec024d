package indeed

import (
	"context"
	"fmt"
	"log"

	"go-jobpilot-automation/internal/browser"
	"go-jobpilot-automation/internal/submit"

	"github.com/playwright-community/playwright-go"
)

// Applicator submits applications on indeed.com through a headless browser.
type Applicator struct {
	manager *browser.Manager
}

func NewApplicator(manager *browser.Manager) *Applicator {
	return &Applicator{manager: manager}
}

func (a *Applicator) Name() string {
	return "indeed"
}

func (a *Applicator) Submit(ctx context.Context, req submit.Request) error {
	page, err := a.manager.NewPage()
	if err != nil {
		return submit.Classify(err)
	}
	defer page.Close()

	log.Printf("📨 Submitting to %s at %s (indeed)", req.Posting.Title, req.Posting.Company)

	if _, err := page.Goto(req.Posting.URL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(30000),
	}); err != nil {
		return submit.Classify(err)
	}

	applyButton := page.Locator("#applyButtonContainer")
	if err := applyButton.Click(playwright.LocatorClickOptions{Timeout: playwright.Float(10000)}); err != nil {
		return submit.Classify(fmt.Errorf("apply button not found: %w", err))
	}

	//upload the tailored resume when the form asks for one
	fileInput := page.Locator("input[type='file']")
	if count, _ := fileInput.Count(); count > 0 && req.ResumePath != "" {
		if err := fileInput.First().SetInputFiles(req.ResumePath); err != nil {
			return submit.Classify(fmt.Errorf("resume upload failed: %w", err))
		}
		log.Printf("📎 Uploaded resume %s", req.ResumePath)
	}

	submitButton := page.Locator("button[type='submit']")
	if err := submitButton.Click(playwright.LocatorClickOptions{Timeout: playwright.Float(10000)}); err != nil {
		return submit.Classify(fmt.Errorf("submit button not found: %w", err))
	}

	if err := ctx.Err(); err != nil {
		return submit.Classify(err)
	}

	log.Printf("✅ Applied to %s at %s", req.Posting.Title, req.Posting.Company)
	return nil
}

package browser

import (
	"fmt"

	"github.com/playwright-community/playwright-go"
)

// Manager owns the playwright runtime and one headless browser instance,
// shared by source adapters, submitters and the resume renderer.
type Manager struct {
	pw      *playwright.Playwright
	browser playwright.Browser
}

func NewManager() (*Manager, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("could not launch chromium browser: %w", err)
	}

	return &Manager{pw: pw, browser: browser}, nil
}

// NewPage opens a fresh page in its own context so callers never share
// cookies or state.
func (m *Manager) NewPage() (playwright.Page, error) {
	ctx, err := m.browser.NewContext()
	if err != nil {
		return nil, fmt.Errorf("could not create browser context: %w", err)
	}
	page, err := ctx.NewPage()
	if err != nil {
		_ = ctx.Close()
		return nil, fmt.Errorf("could not create page: %w", err)
	}
	return page, nil
}

func (m *Manager) Close() error {
	if m.browser != nil {
		if err := m.browser.Close(); err != nil {
			return err
		}
	}
	if m.pw != nil {
		return m.pw.Stop()
	}
	return nil
}

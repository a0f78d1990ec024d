package indeed

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"go-jobpilot-automation/internal/browser"
	"go-jobpilot-automation/internal/config"
	"go-jobpilot-automation/internal/source"

	"github.com/playwright-community/playwright-go"
)

// Provider scrapes indeed.com search result pages. One search is one
// keyword x location pair, paged by start=N*10.
type Provider struct {
	cfg     *config.Config
	browser *browser.Manager
}

func New(cfg *config.Config, mgr *browser.Manager) *Provider {
	return &Provider{
		cfg:     cfg,
		browser: mgr,
	}
}

func (p *Provider) Name() string {
	return "indeed"
}

func (p *Provider) Fetch(ctx context.Context) ([]source.RawPosting, error) {
	var all []source.RawPosting
	log.Println("📋 Searching Indeed...")

	page, err := p.browser.NewPage()
	if err != nil {
		return nil, err
	}
	defer page.Close()

	for _, keyword := range p.cfg.Keywords {
		for _, location := range p.cfg.Locations {
			for pageNum := 0; pageNum < p.cfg.PagesToScrape; pageNum++ {
				if err := ctx.Err(); err != nil {
					return all, err
				}

				searchURL := searchURL(keyword, location, pageNum)
				log.Printf("  🔍 Searching: %q in %q (page %d)", keyword, location, pageNum+1)

				if _, err := page.Goto(searchURL, playwright.PageGotoOptions{
					WaitUntil: playwright.WaitUntilStateDomcontentloaded,
					Timeout:   playwright.Float(30000),
				}); err != nil {
					log.Printf("    ⚠️ Error navigating to %s: %v", searchURL, err)
					continue
				}

				//captcha / blocked check
				title, _ := page.Title()
				if strings.Contains(title, "Just a moment") || strings.Contains(title, "Verify") {
					log.Println("    🛡️ Challenge page detected. Skipping this search...")
					continue
				}

				cards, err := page.Locator(".job_seen_beacon").All()
				if err != nil {
					log.Printf("    ⚠️ Error finding job cards: %v", err)
					continue
				}
				if len(cards) == 0 {
					//no results past this page, move to next search
					break
				}
				log.Printf("    📦 Found %d job cards", len(cards))

				for _, card := range cards {
					raw, ok := p.extract(card)
					if !ok {
						continue
					}
					all = append(all, raw)
				}
			}
		}
	}

	log.Printf("📦 Indeed: %d postings scraped", len(all))
	return all, nil
}

func (p *Provider) extract(card playwright.Locator) (source.RawPosting, bool) {
	titleEl := card.Locator("h2.jobTitle a, a.jcs-JobTitle").First()
	title, _ := titleEl.TextContent()
	href, _ := titleEl.GetAttribute("href")

	companyEl := card.Locator("[data-testid='company-name'], .companyName").First()
	company, _ := companyEl.TextContent()

	locationEl := card.Locator("[data-testid='text-location'], .companyLocation").First()
	location, _ := locationEl.TextContent()

	snippetEl := card.Locator(".job-snippet, [data-testid='jobsnippet_footer']").First()
	snippet, err := snippetEl.TextContent(playwright.LocatorTextContentOptions{
		Timeout: playwright.Float(100),
	})
	if err != nil {
		snippet = ""
	}

	title = strings.TrimSpace(title)
	company = strings.TrimSpace(company)
	location = strings.TrimSpace(location)

	if title == "" || href == "" {
		return source.RawPosting{}, false
	}

	fullURL := href
	if strings.HasPrefix(href, "/") {
		fullURL = "https://www.indeed.com" + href
	}

	return source.RawPosting{
		Source:      p.Name(),
		ExternalID:  externalID(card, fullURL),
		Title:       title,
		Company:     company,
		Location:    location,
		Description: strings.TrimSpace(snippet),
		URL:         fullURL,
		ScrapedAt:   time.Now().UTC(),
	}, true
}

// externalID prefers the card's data-jk attribute, then the jk query param.
// Empty means the normalizer falls back to the URL.
func externalID(card playwright.Locator, rawURL string) string {
	if jk, err := card.GetAttribute("data-jk"); err == nil && jk != "" {
		return jk
	}
	if u, err := url.Parse(rawURL); err == nil {
		if jk := u.Query().Get("jk"); jk != "" {
			return jk
		}
	}
	return ""
}

func searchURL(keyword, location string, pageNum int) string {
	return fmt.Sprintf("https://www.indeed.com/jobs?q=%s&l=%s&start=%d",
		url.QueryEscape(keyword), url.QueryEscape(location), pageNum*10)
}

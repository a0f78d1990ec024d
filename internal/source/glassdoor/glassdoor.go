package glassdoor

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

// Provider scrapes glassdoor.com search result pages. Pages are 1-based
// in the pageNum query param.
//
// Glassdoor ships hashed CSS module class names (JobCard_jobCardContainer__xyz),
// so every selector matches on the stable class prefix.
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
	return "glassdoor"
}

func (p *Provider) Fetch(ctx context.Context) ([]source.RawPosting, error) {
	var all []source.RawPosting
	log.Println("📋 Searching Glassdoor...")

	page, err := p.browser.NewPage()
	if err != nil {
		return nil, err
	}
	defer page.Close()

	for _, keyword := range p.cfg.Keywords {
		for _, location := range p.cfg.Locations {
			for pageNum := 1; pageNum <= p.cfg.PagesToScrape; pageNum++ {
				if err := ctx.Err(); err != nil {
					return all, err
				}

				searchURL := searchURL(keyword, location, pageNum)
				log.Printf("  🔍 Searching: %q in %q (page %d)", keyword, location, pageNum)

				if _, err := page.Goto(searchURL, playwright.PageGotoOptions{
					WaitUntil: playwright.WaitUntilStateDomcontentloaded,
					Timeout:   playwright.Float(30000),
				}); err != nil {
					log.Printf("    ⚠️ Error navigating to %s: %v", searchURL, err)
					continue
				}

				//captcha / blocked check
				title, _ := page.Title()
				if strings.Contains(title, "Security") || strings.Contains(title, "Just a moment") {
					log.Println("    🛡️ Challenge page detected. Skipping this search...")
					continue
				}

				//job cards render client-side, give them a bounded wait
				cardLocator := page.Locator("[class*='JobCard_jobCardContainer']")
				if err := cardLocator.First().WaitFor(playwright.LocatorWaitForOptions{
					State:   playwright.WaitForSelectorStateVisible,
					Timeout: playwright.Float(10000),
				}); err != nil {
					//no results past this page, move to next search
					break
				}

				cards, err := cardLocator.All()
				if err != nil {
					log.Printf("    ⚠️ Error finding job cards: %v", err)
					continue
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

	log.Printf("📦 Glassdoor: %d postings scraped", len(all))
	return all, nil
}

func (p *Provider) extract(card playwright.Locator) (source.RawPosting, bool) {
	titleEl := card.Locator("[class*='JobCard_jobTitle']").First()
	title, _ := titleEl.TextContent()

	companyEl := card.Locator("[class*='EmployerProfile_companyName']").First()
	company, _ := companyEl.TextContent()

	locationEl := card.Locator("[class*='JobCard_location']").First()
	location, _ := locationEl.TextContent()

	linkEl := card.Locator("a").First()
	href, _ := linkEl.GetAttribute("href")

	title = strings.TrimSpace(title)
	company = strings.TrimSpace(company)
	location = strings.TrimSpace(location)

	if title == "" || href == "" {
		return source.RawPosting{}, false
	}

	fullURL := href
	if strings.HasPrefix(href, "/") {
		fullURL = "https://www.glassdoor.com" + href
	}

	return source.RawPosting{
		Source:     p.Name(),
		ExternalID: externalID(fullURL),
		Title:      title,
		Company:    company,
		Location:   location,
		URL:        fullURL,
		ScrapedAt:  time.Now().UTC(),
	}, true
}

// externalID pulls the listing id from the URL query. Empty means the
// normalizer falls back to the URL.
func externalID(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Query().Get("jobListingId")
}

func searchURL(keyword, location string, pageNum int) string {
	return fmt.Sprintf("https://www.glassdoor.com/Job/jobs.htm?sc.keyword=%s&locKeyword=%s&includeNoSalaryJobs=true&pageNum=%d",
		url.QueryEscape(keyword), url.QueryEscape(location), pageNum)
}

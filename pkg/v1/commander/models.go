package commander

// ScrapeCommand is command to scrape product pages.
type ScrapeCommand struct {
	ProductURLs []string `json:"productUrls"`
}

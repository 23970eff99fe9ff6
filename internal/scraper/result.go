package scraper

// Stage is pipeline stage of single scrape invocation.
type Stage string

// Pipeline stages. Done and Failed are terminal.
const (
	StageFetching       Stage = "fetching"
	StageExtracting     Stage = "extracting"
	StageResolvingImage Stage = "resolvingImage"
	StageDownloading    Stage = "downloading"
	StagePersisting     Stage = "persisting"
	StageDone           Stage = "done"
	StageFailed         Stage = "failed"
)

// Result is outcome of single scrape invocation.
type Result struct {
	ProductURL string
	// ProductID is identifier assigned by repository, set only on success.
	ProductID int
	// Reason is human readable failure diagnostic, empty on success.
	Reason string
	// FailedAt is stage which failed, empty on success.
	FailedAt Stage
}

// OK reports whether product was scraped and saved.
func (r Result) OK() bool {
	return r.Reason == "" && r.ProductID > 0
}

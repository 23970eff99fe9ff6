package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/MichalMitros/product-scraper/internal/extractor"
	"github.com/MichalMitros/product-scraper/internal/imageresolver"
	"github.com/MichalMitros/product-scraper/internal/media"
	"github.com/MichalMitros/product-scraper/internal/platform/models"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

//go:generate mockery --name Fetcher --filename fetcher.go
//go:generate mockery --name Repository --filename repository.go

// Fetcher sends http requests and returns response status and body.
type Fetcher interface {
	Fetch(ctx context.Context, method, url string) (int, []byte, error)
}

// Repository persists product records.
type Repository interface {
	// Save creates new product record and returns its assigned identifier.
	Save(ctx context.Context, record *models.ProductRecord) (int, error)
	// Update updates existing product record.
	Update(ctx context.Context, record *models.ProductRecord) error
	// Delete deletes existing product record.
	Delete(ctx context.Context, record *models.ProductRecord) error
}

// MediaStore writes product images.
type MediaStore interface {
	// WriteProductImage writes image for product name and returns its public path.
	WriteProductImage(name string, image []byte) (string, error)
	// RemoveProductImage removes image of product name.
	RemoveProductImage(name string) error
}

// Clock provides times.
type Clock interface {
	// Now returns current UTC time.
	Now() time.Time
}

// Option is custom configuration of Scraper.
type Option func(s *Scraper)

// Scraper scrapes product pages into persisted product records.
type Scraper struct {
	fetcher     Fetcher
	resolver    *imageresolver.Resolver
	repository  Repository
	media       MediaStore
	logger      *zerolog.Logger
	clock       Clock
	strictImage bool
	concurrency int
}

// NewScraper returns new Scraper.
func NewScraper(
	fetcher Fetcher,
	repository Repository,
	store MediaStore,
	logger *zerolog.Logger,
	ops ...Option,
) *Scraper {
	scr := &Scraper{
		fetcher:     fetcher,
		resolver:    imageresolver.NewResolver(fetcher, logger),
		repository:  repository,
		media:       store,
		logger:      logger,
		clock:       systemClock{},
		concurrency: 1,
	}

	for _, op := range ops {
		op(scr)
	}

	return scr
}

// invocation tracks stage of single scrape.
type invocation struct {
	productURL string
	stage      Stage
}

// Scrape fetches product page, extracts product, resolves and stores its image and saves the record.
// It never returns an error and never panics, every failure is logged and reported in Result.
func (s *Scraper) Scrape(ctx context.Context, productURL string) (res Result) {
	inv := &invocation{productURL: productURL}

	defer func() {
		if r := recover(); r != nil {
			res = s.failed(inv, fmt.Errorf("unexpected panic: %v", r))
		}
	}()

	id, err := s.run(ctx, inv)
	if err != nil {
		return s.failed(inv, err)
	}

	s.advance(inv, StageDone)

	s.logger.Info().
		Int("productId", id).
		Str("productUrl", productURL).
		Msg("product successfully saved")

	return Result{
		ProductURL: productURL,
		ProductID:  id,
	}
}

// ScrapeAll scrapes independent product urls concurrently.
// It returns one Result per url in input order.
func (s *Scraper) ScrapeAll(ctx context.Context, productURLs []string) []Result {
	results := make([]Result, len(productURLs))

	errGroup := errgroup.Group{}
	errGroup.SetLimit(s.concurrency)

	for ix, productURL := range productURLs {
		errGroup.Go(func() error {
			results[ix] = s.Scrape(ctx, productURL)
			return nil
		})
	}

	_ = errGroup.Wait()

	return results
}

func (s *Scraper) run(ctx context.Context, inv *invocation) (int, error) {
	s.advance(inv, StageFetching)

	page, err := s.fetchPage(ctx, inv.productURL)
	if err != nil {
		return 0, err
	}

	s.advance(inv, StageExtracting)

	extraction, err := extractor.ExtractHTML(page)
	if err != nil {
		return 0, fmt.Errorf("can't extract product: %w", err)
	}

	draft := extraction.Draft

	if draft.HasImage() {
		s.advance(inv, StageResolvingImage)

		draft.ImageSource = s.resolver.Resolve(ctx, absoluteURL(inv.productURL, draft.ImageSource))

		s.advance(inv, StageDownloading)

		draft.ImageBytes, err = s.downloadImage(ctx, draft.ImageSource)
		if err != nil {
			return 0, err
		}
	}

	s.advance(inv, StagePersisting)

	return s.persist(ctx, &draft)
}

func (s *Scraper) fetchPage(ctx context.Context, productURL string) ([]byte, error) {
	status, body, err := s.fetcher.Fetch(ctx, http.MethodGet, productURL)
	if err != nil {
		return nil, fmt.Errorf("can't fetch product page: %w", err)
	}

	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: product page responded with status %d", ErrFetchFailed, status)
	}

	return body, nil
}

func (s *Scraper) downloadImage(ctx context.Context, imageURL string) ([]byte, error) {
	status, body, err := s.fetcher.Fetch(ctx, http.MethodGet, imageURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrImageDownloadFailed, err)
	}

	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: image responded with status %d", ErrImageDownloadFailed, status)
	}

	if len(body) == 0 {
		return nil, fmt.Errorf("%w: image is empty", ErrImageDownloadFailed)
	}

	return body, nil
}

// persist writes downloaded image and saves assembled record.
// Image path is set even without image file unless strict image path is enabled.
func (s *Scraper) persist(ctx context.Context, draft *models.ProductDraft) (int, error) {
	record := &models.ProductRecord{
		Name:        draft.Name,
		Price:       draft.Price,
		Description: draft.Description,
		ImageSource: draft.ImageSource,
		CreatedAt:   s.clock.Now(),
	}

	if !s.strictImage {
		record.ImagePath = media.PublicPath(draft.Name)
	}

	saved := false
	if len(draft.ImageBytes) > 0 {
		imagePath, err := s.media.WriteProductImage(draft.Name, draft.ImageBytes)
		if err != nil {
			return 0, fmt.Errorf("can't store product image: %w", err)
		}
		record.ImagePath = imagePath

		// removes image also when repository panics
		defer func() {
			if !saved {
				s.removeImage(draft.Name)
			}
		}()
	}

	id, err := s.repository.Save(ctx, record)
	if err == nil && id <= 0 {
		err = fmt.Errorf("repository returned invalid id %d", id)
	}

	if err != nil {
		return 0, fmt.Errorf("%w: can't save product: %w", ErrPersistenceFailed, err)
	}

	saved = true

	return id, nil
}

// removeImage removes image written for record which wasn't saved.
func (s *Scraper) removeImage(name string) {
	if err := s.media.RemoveProductImage(name); err != nil {
		s.logger.Warn().
			Err(err).
			Str("productName", name).
			Msg("can't remove image of unsaved product")
	}
}

func (s *Scraper) advance(inv *invocation, stage Stage) {
	inv.stage = stage

	s.logger.Debug().
		Str("stage", string(stage)).
		Str("productUrl", inv.productURL).
		Msg("scraping stage")
}

func (s *Scraper) failed(inv *invocation, err error) Result {
	failedAt := inv.stage
	inv.stage = StageFailed

	s.logger.Error().
		Err(err).
		Str("stage", string(failedAt)).
		Str("productUrl", inv.productURL).
		Msg("product parsing failed")

	return Result{
		ProductURL: inv.productURL,
		Reason:     err.Error(),
		FailedAt:   failedAt,
	}
}

// absoluteURL resolves image reference against product page url.
// References which can't be parsed are returned unchanged.
func absoluteURL(pageURL, ref string) string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return ref
	}

	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}

	return base.ResolveReference(refURL).String()
}

// WithClock sets Scraper's custom Clock.
func WithClock(c Clock) Option {
	return func(s *Scraper) {
		s.clock = c
	}
}

// WithStrictImagePath makes Scraper set record image path only when image file was written.
func WithStrictImagePath() Option {
	return func(s *Scraper) {
		s.strictImage = true
	}
}

// WithConcurrency sets number of concurrent invocations run by ScrapeAll.
func WithConcurrency(n int) Option {
	return func(s *Scraper) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

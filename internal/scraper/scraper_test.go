package scraper_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MichalMitros/product-scraper/internal/extractor/extractortesting"
	"github.com/MichalMitros/product-scraper/internal/fetcher"
	"github.com/MichalMitros/product-scraper/internal/media"
	"github.com/MichalMitros/product-scraper/internal/platform/models"
	"github.com/MichalMitros/product-scraper/internal/scraper"
	"github.com/MichalMitros/product-scraper/internal/scraper/mocks"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// reusable test data
var (
	mediaDir   = "/srv/public"
	productURL = "https://shop.example.com/p/test-product"
	imageURL   = "https://shop.example.com/p/image.jpg"
	imageBytes = []byte("\xff\xd8\xff\xe0 fake jpeg")
	now        = time.Date(2022, time.April, 1, 1, 1, 1, 0, time.UTC)

	smallImageURL = "https://cdn.example.com/Foto/f1/AB/AB123.jpg"
	largeImageURL = "https://cdn.example.com/Foto/f16/AB/AB123.jpg"
)

func TestUnitScrapeProductPage(t *testing.T) {
	fetch := mocks.NewFetcher(t)
	repository := mocks.NewRepository(t)
	fs := afero.NewMemMapFs()

	mockFetch(fetch, http.MethodGet, productURL, http.StatusOK, []byte(extractortesting.ProductPage), nil)
	mockFetch(fetch, http.MethodHead, imageURL, http.StatusNotFound, nil, nil)
	mockFetch(fetch, http.MethodGet, imageURL, http.StatusOK, imageBytes, nil)
	mockSave(repository, func(r *models.ProductRecord) bool {
		return r.Name == "Test Product" &&
			r.Price.Equal(decimal.RequireFromString("99.99")) &&
			r.Description == "Product Description" &&
			r.ImageSource == imageURL &&
			r.ImagePath == "/images/products/test_product.jpg" &&
			r.CreatedAt.Equal(now) &&
			r.ID == 0
	}, 42, nil)

	res := newScraper(fetch, repository, fs).Scrape(context.TODO(), productURL)

	assert.True(t, res.OK(), "should succeed")
	assert.Equal(t, scraper.Result{ProductURL: productURL, ProductID: 42}, res, "should return assigned id")

	data, err := afero.ReadFile(fs, mediaDir+"/images/products/test_product.jpg")
	require.NoError(t, err, "image file should be written")
	assert.Equal(t, imageBytes, data, "should write downloaded image bytes")
}

func TestUnitScrapeLargeImage(t *testing.T) {
	fetch := mocks.NewFetcher(t)
	repository := mocks.NewRepository(t)
	page := extractortesting.Page{
		Heading:     "Big Box",
		NormalPrice: lo.ToPtr("1 250 Kč"),
		Description: lo.ToPtr("Box"),
		ImageSrc:    lo.ToPtr(smallImageURL),
	}

	mockFetch(fetch, http.MethodGet, productURL, http.StatusOK, []byte(page.HTML()), nil)
	mockFetch(fetch, http.MethodHead, largeImageURL, http.StatusOK, nil, nil)
	mockFetch(fetch, http.MethodGet, largeImageURL, http.StatusOK, imageBytes, nil)
	mockSave(repository, func(r *models.ProductRecord) bool {
		return r.ImageSource == largeImageURL &&
			r.ImagePath == "/images/products/big_box.jpg" &&
			r.Price.Equal(decimal.NewFromInt(1250))
	}, 7, nil)

	res := newScraper(fetch, repository, afero.NewMemMapFs()).Scrape(context.TODO(), productURL)

	assert.True(t, res.OK(), "should succeed")
	assert.Equal(t, 7, res.ProductID, "should return assigned id")
}

func TestUnitScrapeWithoutImage(t *testing.T) {
	page := extractortesting.Page{
		Heading:     "Test Product",
		DetailPrice: lo.ToPtr("10"),
		Description: lo.ToPtr("Description"),
	}

	tests := map[string]struct {
		ops           []scraper.Option
		wantImagePath string
	}{
		"image path is always set": {
			wantImagePath: "/images/products/test_product.jpg",
		},
		"strict image path is set only for written image": {
			ops:           []scraper.Option{scraper.WithStrictImagePath()},
			wantImagePath: "",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			fetch := mocks.NewFetcher(t)
			repository := mocks.NewRepository(t)
			fs := afero.NewMemMapFs()

			mockFetch(fetch, http.MethodGet, productURL, http.StatusOK, []byte(page.HTML()), nil)
			mockSave(repository, func(r *models.ProductRecord) bool {
				return r.ImagePath == tt.wantImagePath && r.ImageSource == ""
			}, 1, nil)

			res := newScraper(fetch, repository, fs, tt.ops...).Scrape(context.TODO(), productURL)

			assert.True(t, res.OK(), "should succeed without image")

			exists, err := afero.Exists(fs, mediaDir+"/images/products/test_product.jpg")
			require.NoError(t, err, "shouldn't return any error")
			assert.False(t, exists, "shouldn't write image file")
		})
	}
}

func TestUnitScrapeStrictImagePathWithImage(t *testing.T) {
	fetch := mocks.NewFetcher(t)
	repository := mocks.NewRepository(t)

	mockFetch(fetch, http.MethodGet, productURL, http.StatusOK, []byte(extractortesting.ProductPage), nil)
	mockFetch(fetch, http.MethodHead, imageURL, http.StatusNotFound, nil, nil)
	mockFetch(fetch, http.MethodGet, imageURL, http.StatusOK, imageBytes, nil)
	mockSave(repository, func(r *models.ProductRecord) bool {
		return r.ImagePath == "/images/products/test_product.jpg"
	}, 1, nil)

	res := newScraper(fetch, repository, afero.NewMemMapFs(), scraper.WithStrictImagePath()).
		Scrape(context.TODO(), productURL)

	assert.True(t, res.OK(), "should succeed")
}

func TestUnitScrapeFailure(t *testing.T) {
	pageWithImage := []byte(extractortesting.ProductPage)

	tests := map[string]struct {
		mock         func(f *mocks.Fetcher, r *mocks.Repository)
		fs           afero.Fs
		wantStage    scraper.Stage
		wantContains string
	}{
		"page not found": {
			mock: func(f *mocks.Fetcher, _ *mocks.Repository) {
				mockFetch(f, http.MethodGet, productURL, http.StatusNotFound, []byte("not found"), nil)
			},
			wantStage:    scraper.StageFetching,
			wantContains: "fetch failed: product page responded with status 404",
		},
		"page transport error": {
			mock: func(f *mocks.Fetcher, _ *mocks.Repository) {
				mockFetch(f, http.MethodGet, productURL, 0, nil, fetcher.ErrTransport)
			},
			wantStage:    scraper.StageFetching,
			wantContains: "can't fetch product page: transport error",
		},
		"missing name": {
			mock: func(f *mocks.Fetcher, _ *mocks.Repository) {
				page := extractortesting.Page{Description: lo.ToPtr("Description")}
				mockFetch(f, http.MethodGet, productURL, http.StatusOK, []byte(page.HTML()), nil)
			},
			wantStage:    scraper.StageExtracting,
			wantContains: `missing field "name"`,
		},
		"missing description": {
			mock: func(f *mocks.Fetcher, _ *mocks.Repository) {
				page := extractortesting.Page{Heading: "Product", DetailPrice: lo.ToPtr("1")}
				mockFetch(f, http.MethodGet, productURL, http.StatusOK, []byte(page.HTML()), nil)
			},
			wantStage:    scraper.StageExtracting,
			wantContains: `missing field "description"`,
		},
		"image transport error": {
			mock: func(f *mocks.Fetcher, _ *mocks.Repository) {
				mockFetch(f, http.MethodGet, productURL, http.StatusOK, pageWithImage, nil)
				mockFetch(f, http.MethodHead, imageURL, 0, nil, fetcher.ErrTransport)
				mockFetch(f, http.MethodGet, imageURL, 0, nil, fetcher.ErrTransport)
			},
			wantStage:    scraper.StageDownloading,
			wantContains: "image download failed: transport error",
		},
		"image not found": {
			mock: func(f *mocks.Fetcher, _ *mocks.Repository) {
				mockFetch(f, http.MethodGet, productURL, http.StatusOK, pageWithImage, nil)
				mockFetch(f, http.MethodHead, imageURL, http.StatusNotFound, nil, nil)
				mockFetch(f, http.MethodGet, imageURL, http.StatusNotFound, []byte("not found"), nil)
			},
			wantStage:    scraper.StageDownloading,
			wantContains: "image download failed: image responded with status 404",
		},
		"empty image": {
			mock: func(f *mocks.Fetcher, _ *mocks.Repository) {
				mockFetch(f, http.MethodGet, productURL, http.StatusOK, pageWithImage, nil)
				mockFetch(f, http.MethodHead, imageURL, http.StatusOK, nil, nil)
				mockFetch(f, http.MethodGet, imageURL, http.StatusOK, []byte{}, nil)
			},
			wantStage:    scraper.StageDownloading,
			wantContains: "image download failed: image is empty",
		},
		"image write error": {
			mock: func(f *mocks.Fetcher, _ *mocks.Repository) {
				mockFetch(f, http.MethodGet, productURL, http.StatusOK, pageWithImage, nil)
				mockFetch(f, http.MethodHead, imageURL, http.StatusNotFound, nil, nil)
				mockFetch(f, http.MethodGet, imageURL, http.StatusOK, imageBytes, nil)
			},
			fs:           afero.NewReadOnlyFs(afero.NewMemMapFs()),
			wantStage:    scraper.StagePersisting,
			wantContains: "can't store product image: image write failed",
		},
		"save error": {
			mock: func(f *mocks.Fetcher, r *mocks.Repository) {
				mockFetch(f, http.MethodGet, productURL, http.StatusOK, pageWithImage, nil)
				mockFetch(f, http.MethodHead, imageURL, http.StatusNotFound, nil, nil)
				mockFetch(f, http.MethodGet, imageURL, http.StatusOK, imageBytes, nil)
				mockSave(r, func(*models.ProductRecord) bool { return true }, 0, assert.AnError)
			},
			wantStage:    scraper.StagePersisting,
			wantContains: "persistence failed: can't save product",
		},
		"invalid id": {
			mock: func(f *mocks.Fetcher, r *mocks.Repository) {
				mockFetch(f, http.MethodGet, productURL, http.StatusOK, pageWithImage, nil)
				mockFetch(f, http.MethodHead, imageURL, http.StatusNotFound, nil, nil)
				mockFetch(f, http.MethodGet, imageURL, http.StatusOK, imageBytes, nil)
				mockSave(r, func(*models.ProductRecord) bool { return true }, 0, nil)
			},
			wantStage:    scraper.StagePersisting,
			wantContains: "persistence failed: can't save product: repository returned invalid id 0",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			fetch := mocks.NewFetcher(t)
			repository := mocks.NewRepository(t)
			fs := tt.fs
			if fs == nil {
				fs = afero.NewMemMapFs()
			}

			tt.mock(fetch, repository)

			res := newScraper(fetch, repository, fs).Scrape(context.TODO(), productURL)

			assert.False(t, res.OK(), "should fail")
			assert.Zero(t, res.ProductID, "shouldn't return product id")
			assert.Equal(t, productURL, res.ProductURL, "should return product url")
			assert.Equal(t, tt.wantStage, res.FailedAt, "should report failed stage")
			assert.Contains(t, res.Reason, tt.wantContains, "should return failure reason")

			exists, err := afero.Exists(fs, mediaDir+"/images/products/test_product.jpg")
			require.NoError(t, err, "shouldn't return any error")
			assert.False(t, exists, "shouldn't leave image file")
		})
	}
}

func TestUnitScrapeRecoversPanic(t *testing.T) {
	fetch := mocks.NewFetcher(t)
	repository := mocks.NewRepository(t)

	page := extractortesting.Page{Heading: "Product", Description: lo.ToPtr("Description")}
	mockFetch(fetch, http.MethodGet, productURL, http.StatusOK, []byte(page.HTML()), nil)
	repository.On("Save", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { panic("connection pool exhausted") }).
		Return(0, nil).
		Once()

	res := newScraper(fetch, repository, afero.NewMemMapFs()).Scrape(context.TODO(), productURL)

	assert.False(t, res.OK(), "should fail")
	assert.Equal(t, scraper.StagePersisting, res.FailedAt, "should report stage of panic")
	assert.Equal(t, "unexpected panic: connection pool exhausted", res.Reason, "should convert panic into reason")
}

func TestUnitScrapeRecoversPanicRemovesImage(t *testing.T) {
	fetch := mocks.NewFetcher(t)
	repository := mocks.NewRepository(t)
	fs := afero.NewMemMapFs()

	mockFetch(fetch, http.MethodGet, productURL, http.StatusOK, []byte(extractortesting.ProductPage), nil)
	mockFetch(fetch, http.MethodHead, imageURL, http.StatusNotFound, nil, nil)
	mockFetch(fetch, http.MethodGet, imageURL, http.StatusOK, imageBytes, nil)
	repository.On("Save", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { panic("connection pool exhausted") }).
		Return(0, nil).
		Once()

	res := newScraper(fetch, repository, fs).Scrape(context.TODO(), productURL)

	assert.False(t, res.OK(), "should fail")
	assert.Equal(t, scraper.StagePersisting, res.FailedAt, "should report stage of panic")
	assert.Equal(t, "unexpected panic: connection pool exhausted", res.Reason, "should convert panic into reason")

	exists, err := afero.Exists(fs, mediaDir+"/images/products/test_product.jpg")
	require.NoError(t, err, "shouldn't return any error")
	assert.False(t, exists, "shouldn't leave image of unsaved product")
}

func TestUnitScrapeTwiceCreatesTwoRecords(t *testing.T) {
	fetch := mocks.NewFetcher(t)
	repository := mocks.NewRepository(t)

	page := extractortesting.Page{Heading: "Product", Description: lo.ToPtr("Description")}
	fetch.On("Fetch", mock.Anything, http.MethodGet, productURL).
		Return(http.StatusOK, []byte(page.HTML()), nil).
		Twice()
	mockSave(repository, func(*models.ProductRecord) bool { return true }, 1, nil)
	mockSave(repository, func(*models.ProductRecord) bool { return true }, 2, nil)

	scr := newScraper(fetch, repository, afero.NewMemMapFs())
	first := scr.Scrape(context.TODO(), productURL)
	second := scr.Scrape(context.TODO(), productURL)

	assert.Equal(t, 1, first.ProductID, "first invocation should create first record")
	assert.Equal(t, 2, second.ProductID, "second invocation should create another record")
}

func TestUnitScrapeAll(t *testing.T) {
	fetch := mocks.NewFetcher(t)
	repository := mocks.NewRepository(t)

	urls := []string{
		"https://shop.example.com/p/1",
		"https://shop.example.com/p/2",
		"https://shop.example.com/p/3",
		"https://shop.example.com/p/4",
	}

	page := extractortesting.Page{Heading: "Product", Description: lo.ToPtr("Description")}
	for _, u := range []string{urls[0], urls[2], urls[3]} {
		mockFetch(fetch, http.MethodGet, u, http.StatusOK, []byte(page.HTML()), nil)
	}
	mockFetch(fetch, http.MethodGet, urls[1], http.StatusNotFound, nil, nil)

	var lastID atomic.Int32
	repository.On("Save", mock.Anything, mock.Anything).
		Return(func(context.Context, *models.ProductRecord) (int, error) {
			return int(lastID.Add(1)), nil
		}).
		Times(3)

	results := newScraper(fetch, repository, afero.NewMemMapFs(), scraper.WithConcurrency(2)).
		ScrapeAll(context.TODO(), urls)

	require.Len(t, results, len(urls), "should return result for every url")
	for ix, res := range results {
		assert.Equal(t, urls[ix], res.ProductURL, "should keep input order")
	}
	assert.Equal(t, []bool{true, false, true, true},
		lo.Map(results, func(r scraper.Result, _ int) bool { return r.OK() }),
		"should fail only not found page",
	)
	assert.ElementsMatch(t, []int{0, 1, 2, 3},
		lo.Map(results, func(r scraper.Result, _ int) int { return r.ProductID }),
		"should assign ids only to saved products",
	)
}

func TestUnitScrapeHTTPPipeline(t *testing.T) {
	var imageProbes atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/p/test-product", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(extractortesting.ProductPage))
	})
	mux.HandleFunc("/p/image.jpg", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			imageProbes.Add(1)
		}
		_, _ = w.Write(imageBytes)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	repository := mocks.NewRepository(t)
	mockSave(repository, func(r *models.ProductRecord) bool {
		return r.ImageSource == srv.URL+"/p/image.jpg"
	}, 99, nil)

	fs := afero.NewMemMapFs()
	httpFetcher := fetcher.NewFetcher(srv.Client(), "product-scraper-test")

	res := newScraper(httpFetcher, repository, fs).Scrape(context.TODO(), srv.URL+"/p/test-product")

	assert.True(t, res.OK(), "should succeed")
	assert.Equal(t, 99, res.ProductID, "should return assigned id")
	assert.Equal(t, int32(1), imageProbes.Load(), "should probe image once")

	data, err := afero.ReadFile(fs, mediaDir+"/images/products/test_product.jpg")
	require.NoError(t, err, "image file should be written")
	assert.Equal(t, imageBytes, data, "should write downloaded image bytes")
}

func TestUnitScrapeHTTPPageNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	fs := afero.NewMemMapFs()
	res := newScraper(fetcher.NewFetcher(srv.Client(), "product-scraper-test"), mocks.NewRepository(t), fs).
		Scrape(context.TODO(), srv.URL+"/p/missing")

	assert.False(t, res.OK(), "should fail")
	assert.Equal(t, scraper.StageFetching, res.FailedAt, "should fail on fetching")

	exists, err := afero.DirExists(fs, mediaDir)
	require.NoError(t, err, "shouldn't return any error")
	assert.False(t, exists, "shouldn't touch media directory")
}

type fakeClock struct {
	now time.Time
}

func (c fakeClock) Now() time.Time {
	return c.now
}

func newScraper(f scraper.Fetcher, r scraper.Repository, fs afero.Fs, ops ...scraper.Option) *scraper.Scraper {
	ops = append([]scraper.Option{scraper.WithClock(fakeClock{now: now})}, ops...)
	logger := zerolog.Nop()

	return scraper.NewScraper(f, r, media.NewStore(fs, mediaDir), &logger, ops...)
}

func mockFetch(f *mocks.Fetcher, method, url string, status int, body []byte, err error) {
	f.On("Fetch", mock.Anything, method, url).
		Return(status, body, err).
		Once()
}

func mockSave(r *mocks.Repository, match func(*models.ProductRecord) bool, id int, err error) {
	r.On("Save", mock.Anything, mock.MatchedBy(match)).
		Return(id, err).
		Once()
}

package helpers

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MichalMitros/product-scraper/internal/extractor/extractortesting"
	pgmodels "github.com/MichalMitros/product-scraper/internal/platform/storage/gen/postgres/public/model"
	"github.com/MichalMitros/product-scraper/internal/platform/storage/storagetesting"
	"github.com/go-jet/jet/v2/qrm"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

const (
	contentType = "Content-Type"
)

// ShopServer is mocked shop serving product pages and images.
type ShopServer struct {
	*httptest.Server
	ImageProbes atomic.Int32
}

// ProductURL returns url of product page with provided name.
func (s *ShopServer) ProductURL(name string) string {
	return fmt.Sprintf("%s/p/%s", s.URL, name)
}

// PrepareShopServer is helper function for mocking shop http server.
// Every page under /p/ is product page named by the path, /p/missing answers 404.
// Images are served under /Foto/f1/ and /Foto/f16/.
func PrepareShopServer(t *testing.T, image []byte) *ShopServer {
	t.Helper()

	shop := &ShopServer{}

	mux := http.NewServeMux()
	mux.HandleFunc("/p/missing", http.NotFound)
	mux.HandleFunc("/p/", func(wrt http.ResponseWriter, req *http.Request) {
		page := extractortesting.Page{
			Heading:     req.URL.Path[len("/p/"):],
			DetailPrice: lo.ToPtr("99.99"),
			Description: lo.ToPtr("Product Description"),
			ImageSrc:    lo.ToPtr("/Foto/f1/" + req.URL.Path[len("/p/"):] + ".jpg"),
		}
		wrt.Header().Add(contentType, "text/html; charset=utf-8")
		_, _ = wrt.Write([]byte(page.HTML()))
	})
	mux.HandleFunc("/Foto/", func(wrt http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodHead {
			shop.ImageProbes.Add(1)
		}
		wrt.Header().Add(contentType, "image/jpeg")
		_, _ = wrt.Write(image)
	})

	shop.Server = httptest.NewServer(mux)

	t.Cleanup(func() {
		shop.Close()
	})

	return shop
}

// WaitForProducts is blocking helper function, returns all products after there are at least n of them.
func WaitForProducts(t *testing.T, queryable qrm.Queryable, n int, timeout time.Duration) []pgmodels.Product {
	t.Helper()

	deadline := time.After(timeout)
	for {
		select {
		case <-deadline:
			require.FailNow(t, "products weren't saved in time", "want %d products", n)
		case <-time.After(time.Millisecond * 250):
		}

		products := storagetesting.GetProducts(t, queryable)
		if len(products) >= n {
			return products
		}
	}
}

// SyncBuffer is bytes buffer safe for concurrent writes and reads.
type SyncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// Write appends p to buffer.
func (b *SyncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// String returns buffer content.
func (b *SyncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// WaitForLog is blocking helper function, returns after buffer contains provided message.
func WaitForLog(t *testing.T, buf *SyncBuffer, message string, timeout time.Duration) {
	t.Helper()

	deadline := time.After(timeout)
	for !strings.Contains(buf.String(), message) {
		select {
		case <-deadline:
			require.FailNow(t, "message wasn't logged in time", message)
		case <-time.After(time.Millisecond * 100):
		}
	}
}

// RequireEnv skips test when any of provided environment variables is not set.
func RequireEnv(t *testing.T, names ...string) {
	t.Helper()

	for _, name := range names {
		if os.Getenv(name) == "" {
			t.Skipf("please provide %s environment variable", name)
		}
	}
}

// DeclareRMQExchange is helper function for declaring RMQ exchange.
func DeclareRMQExchange(t *testing.T, ch *amqp.Channel, exchange string) {
	t.Helper()

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		require.FailNow(t, "can't declare exchange", exchange, err)
	}
}

// DeclareRMQQueue is helper function for declaring RMQ queue and binding and cleaning them after test is finished.
func DeclareRMQQueue(t *testing.T, channel *amqp.Channel, queueName, exchange, routingKey string) {
	t.Helper()

	_, err := channel.QueueDeclare(queueName, true, false, false, false, nil)
	if err != nil {
		require.FailNow(t, "can't declare queue", queueName, err)
	}

	err = channel.QueueBind(queueName, routingKey, exchange, false, nil)
	if err != nil {
		require.FailNow(t, "can't bind queue", queueName, routingKey, err)
	}

	t.Cleanup(func() {
		_, err := channel.QueueDelete(queueName, false, false, true)
		if err != nil {
			require.FailNow(t, "can't delete queue", queueName, err)
		}
	})
}

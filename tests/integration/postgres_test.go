package integration

import (
	"net/http"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"
	invoicingapp "github.com/rsjrcat/invoice-server-main-hd/internal/application/invoicing"
	"github.com/rsjrcat/invoice-server-main-hd/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgres_ConcurrentInvoicing(t *testing.T) {
	srv := NewServer(t, NewPostgresDB(t))
	tenantID := uuid.New()
	c := srv.Client(tenantID)
	customer := testutil.SeedCustomer(t, srv.DB, tenantID, "Acme", "")
	bolts := CreateItem(t, c, "Bolt", 10, 6, "")
	nuts := CreateItem(t, c, "Nut", 5, 100, "")

	const attempts = 10
	var (
		mu      sync.Mutex
		numbers []int64
		codes   = map[int]int{}
		wg      sync.WaitGroup
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// opposite line order across goroutines exercises lock ordering
			items := []map[string]any{
				{"inventoryItemId": bolts.ID, "quantity": 1},
				{"inventoryItemId": nuts.ID, "quantity": 2},
			}
			if i%2 == 1 {
				items[0], items[1] = items[1], items[0]
			}
			w := c.Do(t, http.MethodPost, "/api/v1/invoices", map[string]any{
				"customerId": customer.ID,
				"items":      items,
			})

			mu.Lock()
			defer mu.Unlock()
			codes[w.Code]++
			if w.Code == http.StatusCreated {
				numbers = append(numbers, testutil.DecodeData[invoicingapp.InvoiceResponse](t, w, http.StatusCreated).InvoiceNumber)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 6, codes[http.StatusCreated])
	assert.Equal(t, attempts-6, codes[http.StatusBadRequest])
	assert.Equal(t, int64(0), GetItem(t, c, bolts.ID).Quantity)
	assert.Equal(t, int64(88), GetItem(t, c, nuts.ID).Quantity)

	sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })
	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6}, numbers, "invoice numbers must be unique and gap free")
}

func TestPostgres_SalesOrderInvoicedOnce(t *testing.T) {
	srv := NewServer(t, NewPostgresDB(t))
	tenantID := uuid.New()
	c := srv.Client(tenantID)
	customer := testutil.SeedCustomer(t, srv.DB, tenantID, "Acme", "")
	item := CreateItem(t, c, "Widget", 1000, 50, "18")
	order := CreateAcceptedOrder(t, c, customer.ID, item.ID, 4)

	const attempts = 5
	codes := make([]int, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = c.Do(t, http.MethodPost, "/api/v1/invoices", map[string]any{"salesOrderId": order.ID}).Code
		}(i)
	}
	wg.Wait()

	created := 0
	for _, code := range codes {
		if code == http.StatusCreated {
			created++
			continue
		}
		assert.Equal(t, http.StatusConflict, code)
	}
	require.Equal(t, 1, created)
	assert.Equal(t, int64(46), GetItem(t, c, item.ID).Quantity)
}

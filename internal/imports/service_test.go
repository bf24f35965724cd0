package imports

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/stockpilot/stockpilot/internal/catalog"
	"github.com/stockpilot/stockpilot/internal/ledger"
)

type fakeCatalog struct {
	suppliers map[string]catalog.Supplier
	products  []catalog.Product
	created   []catalog.CreateProductInput
}

func newFakeCatalog(products ...catalog.Product) *fakeCatalog {
	return &fakeCatalog{suppliers: make(map[string]catalog.Supplier), products: products}
}

func (f *fakeCatalog) ResolveSupplier(_ context.Context, id, name string) (catalog.Supplier, error) {
	if id != "" {
		s, ok := f.suppliers[id]
		if !ok {
			return catalog.Supplier{}, catalog.ErrNotFound
		}
		return s, nil
	}
	for _, s := range f.suppliers {
		if strings.EqualFold(s.Name, name) {
			return s, nil
		}
	}
	s := catalog.Supplier{ID: uuid.NewString(), Name: name}
	f.suppliers[s.ID] = s
	return s, nil
}

func (f *fakeCatalog) GetProduct(_ context.Context, id string) (catalog.Product, error) {
	for _, p := range f.products {
		if p.ID == id {
			return p, nil
		}
	}
	return catalog.Product{}, catalog.ErrNotFound
}

func (f *fakeCatalog) SearchProducts(_ context.Context, query string, _ int) ([]catalog.Product, error) {
	var hits []catalog.Product
	for _, p := range f.products {
		if strings.Contains(strings.ToLower(p.Name), strings.ToLower(query)) {
			hits = append(hits, p)
		}
	}
	return hits, nil
}

func (f *fakeCatalog) CreateProduct(_ context.Context, in catalog.CreateProductInput) (catalog.Product, error) {
	f.created = append(f.created, in)
	p := catalog.Product{ID: uuid.NewString(), Name: in.Name, Unit: in.Unit, Category: in.Category}
	f.products = append(f.products, p)
	return p, nil
}

type fakeLedger struct {
	applied []ledger.PurchaseInput
	failOn  string
}

func (f *fakeLedger) ApplyPurchase(_ context.Context, in ledger.PurchaseInput) (ledger.Entry, error) {
	if f.failOn != "" && in.ProductID == f.failOn {
		return ledger.Entry{}, ledger.ErrNotFound
	}
	f.applied = append(f.applied, in)
	return ledger.Entry{Product: ledger.ProductState{ID: in.ProductID}}, nil
}

type memoryReceipts struct {
	receipts map[string]ImportReceipt
}

func newMemoryReceipts() *memoryReceipts {
	return &memoryReceipts{receipts: make(map[string]ImportReceipt)}
}

func (m *memoryReceipts) CreateReceipt(_ context.Context, r ImportReceipt) (ImportReceipt, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.CreatedAt = time.Now()
	m.receipts[r.ID] = r
	return r, nil
}

func (m *memoryReceipts) GetReceipt(_ context.Context, id string) (ImportReceipt, error) {
	r, ok := m.receipts[id]
	if !ok {
		return ImportReceipt{}, ErrNotFound
	}
	return r, nil
}

func (m *memoryReceipts) ListReceipts(_ context.Context, limit, offset int) ([]ImportReceipt, int, error) {
	var all []ImportReceipt
	for _, r := range m.receipts {
		all = append(all, r)
	}
	total := len(all)
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *memoryReceipts) DeleteReceipt(_ context.Context, id string) error {
	if _, ok := m.receipts[id]; !ok {
		return ErrNotFound
	}
	delete(m.receipts, id)
	return nil
}

func TestRecordAppliesLinesAndPersistsReceipt(t *testing.T) {
	existing := catalog.Product{ID: "p1", Name: "Arabica Beans"}
	cat := newFakeCatalog(existing)
	led := &fakeLedger{}
	repo := newMemoryReceipts()
	svc := NewService(repo, cat, led, nil, nil)

	margin := 25.0
	receipt, err := svc.Record(context.Background(), RecordInput{
		SupplierName: "Acme Trading",
		Items: []ImportItem{
			{ProductName: "Arabica Beans", Quantity: 10, UnitCost: 100, ProfitPercent: &margin},
			{ProductName: "Robusta Beans", Quantity: 5, UnitCost: 80},
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, receipt.ID)
	require.Equal(t, "Acme Trading", receipt.SupplierName)
	require.Equal(t, float64(10*100+5*80), receipt.TotalAmount)
	require.Len(t, receipt.Items, 2)

	// Line one resolved the existing product; line two created a new one.
	require.Len(t, led.applied, 2)
	require.Equal(t, "p1", led.applied[0].ProductID)
	require.Equal(t, 10, led.applied[0].Quantity)
	require.Equal(t, float64(100), led.applied[0].UnitCost)
	require.NotNil(t, led.applied[0].ProfitPercent)

	require.Len(t, cat.created, 1)
	require.Equal(t, "Robusta Beans", cat.created[0].Name)
	require.Equal(t, "Acme Trading", cat.created[0].Supplier)
}

func TestRecordRestocksClosestNameMatch(t *testing.T) {
	// A shorthand line like "Arabica" must restock the existing
	// "Arabica Beans", not create a duplicate product.
	cat := newFakeCatalog(catalog.Product{ID: "p1", Name: "Arabica Beans"})
	led := &fakeLedger{}
	svc := NewService(newMemoryReceipts(), cat, led, nil, nil)

	_, err := svc.Record(context.Background(), RecordInput{
		SupplierName: "Acme",
		Items:        []ImportItem{{ProductName: "Arabica", Quantity: 5, UnitCost: 100}},
	})
	require.NoError(t, err)
	require.Empty(t, cat.created)
	require.Len(t, led.applied, 1)
	require.Equal(t, "p1", led.applied[0].ProductID)
	require.Equal(t, 5, led.applied[0].Quantity)
}

func TestRecordResolvesProductByID(t *testing.T) {
	existing := catalog.Product{ID: "p9", Name: "Sugar"}
	cat := newFakeCatalog(existing)
	led := &fakeLedger{}
	svc := NewService(newMemoryReceipts(), cat, led, nil, nil)

	_, err := svc.Record(context.Background(), RecordInput{
		SupplierName: "Acme",
		Items:        []ImportItem{{ProductID: "p9", Quantity: 2, UnitCost: 30}},
	})
	require.NoError(t, err)
	require.Len(t, led.applied, 1)
	require.Equal(t, "p9", led.applied[0].ProductID)
	require.Empty(t, cat.created)
}

func TestRecordAbortsOnBadLineWithoutRollback(t *testing.T) {
	cat := newFakeCatalog(
		catalog.Product{ID: "p1", Name: "Flour"},
		catalog.Product{ID: "p2", Name: "Yeast"},
	)
	led := &fakeLedger{failOn: "p2"}
	repo := newMemoryReceipts()
	svc := NewService(repo, cat, led, nil, nil)

	_, err := svc.Record(context.Background(), RecordInput{
		SupplierName: "Acme",
		Items: []ImportItem{
			{ProductID: "p1", Quantity: 1, UnitCost: 10},
			{ProductID: "p2", Quantity: 1, UnitCost: 10},
			{ProductID: "p1", Quantity: 1, UnitCost: 10},
		},
	})
	var lineErr *LineError
	require.ErrorAs(t, err, &lineErr)
	require.Equal(t, 1, lineErr.Line)
	require.ErrorIs(t, err, ledger.ErrNotFound)

	// The first line stays applied and no receipt document was written.
	require.Len(t, led.applied, 1)
	require.Empty(t, repo.receipts)
}

func TestRecordValidation(t *testing.T) {
	svc := NewService(newMemoryReceipts(), newFakeCatalog(), &fakeLedger{}, nil, nil)
	ctx := context.Background()

	_, err := svc.Record(ctx, RecordInput{SupplierName: "Acme"})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Record(ctx, RecordInput{
		SupplierName: "Acme",
		Items:        []ImportItem{{ProductName: "Salt", Quantity: 0, UnitCost: 5}},
	})
	var lineErr *LineError
	require.ErrorAs(t, err, &lineErr)
	require.Equal(t, 0, lineErr.Line)
}

// stockStore backs both the catalog repository and the ledger repository
// with one product map, so a receipt can be traced from Record all the way
// to the resulting valuation.
type stockStore struct {
	mu        sync.Mutex
	products  map[string]catalog.Product
	suppliers map[string]catalog.Supplier
	movements []ledger.Movement
}

func newStockStore() *stockStore {
	return &stockStore{
		products:  make(map[string]catalog.Product),
		suppliers: make(map[string]catalog.Supplier),
	}
}

func (s *stockStore) CreateProduct(_ context.Context, p catalog.Product) (catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	s.products[p.ID] = p
	return p, nil
}

func (s *stockStore) GetProduct(_ context.Context, id string) (catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return p, nil
}

func (s *stockStore) UpdateProduct(_ context.Context, id string, patch catalog.ProductPatch) (catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return catalog.Product{}, catalog.ErrNotFound
	}
	if patch.IsDeleted != nil {
		p.IsDeleted = *patch.IsDeleted
	}
	s.products[id] = p
	return p, nil
}

func (s *stockStore) ListProducts(_ context.Context, _, _ int) ([]catalog.Product, int, error) {
	return nil, 0, nil
}

func (s *stockStore) FindProductsByName(_ context.Context, query string, limit int) ([]catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var hits []catalog.Product
	for _, p := range s.products {
		if !p.IsDeleted && strings.Contains(strings.ToLower(p.Name), strings.ToLower(query)) {
			hits = append(hits, p)
		}
	}
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (s *stockStore) CreateSupplier(_ context.Context, sup catalog.Supplier) (catalog.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sup.ID == "" {
		sup.ID = uuid.NewString()
	}
	s.suppliers[sup.ID] = sup
	return sup, nil
}

func (s *stockStore) GetSupplier(_ context.Context, id string) (catalog.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sup, ok := s.suppliers[id]
	if !ok {
		return catalog.Supplier{}, catalog.ErrNotFound
	}
	return sup, nil
}

func (s *stockStore) GetSupplierByName(_ context.Context, name string) (catalog.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sup := range s.suppliers {
		if strings.EqualFold(sup.Name, name) {
			return sup, nil
		}
	}
	return catalog.Supplier{}, catalog.ErrNotFound
}

func (s *stockStore) ListSuppliers(_ context.Context) ([]catalog.Supplier, error) {
	return nil, nil
}

func (s *stockStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx ledger.TxRepository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(ctx, (*stockStoreTx)(s))
}

func (s *stockStore) ListMovements(_ context.Context, productID string, limit int) ([]ledger.Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ledger.Movement
	for _, m := range s.movements {
		if m.ProductID == productID && len(out) < limit {
			out = append(out, m)
		}
	}
	return out, nil
}

type stockStoreTx stockStore

func (t *stockStoreTx) GetProductForUpdate(_ context.Context, productID string) (ledger.ProductState, error) {
	p, ok := t.products[productID]
	if !ok || p.IsDeleted {
		return ledger.ProductState{}, ledger.ErrNotFound
	}
	return ledger.ProductState{
		ID:                 p.ID,
		TotalInStock:       p.TotalInStock,
		TotalSold:          p.TotalSold,
		AverageImportPrice: p.AverageImportPrice,
		HighestImportPrice: p.HighestImportPrice,
		ProfitPercent:      p.ProfitPercent,
		SellingPrice:       p.SellingPrice,
	}, nil
}

func (t *stockStoreTx) UpdateProductState(_ context.Context, st ledger.ProductState) error {
	p, ok := t.products[st.ID]
	if !ok {
		return ledger.ErrNotFound
	}
	p.TotalInStock = st.TotalInStock
	p.TotalSold = st.TotalSold
	p.AverageImportPrice = st.AverageImportPrice
	p.HighestImportPrice = st.HighestImportPrice
	p.ProfitPercent = st.ProfitPercent
	p.SellingPrice = st.SellingPrice
	t.products[st.ID] = p
	return nil
}

func (t *stockStoreTx) InsertMovement(_ context.Context, m ledger.Movement) (ledger.Movement, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.PostedAt = time.Now()
	t.movements = append(t.movements, m)
	return m, nil
}

func TestRecordUnknownProductEndToEnd(t *testing.T) {
	store := newStockStore()
	catalogSvc := catalog.NewService(store, nil, nil, nil,
		catalog.Config{TaxRate: 0.015, DefaultProfitPercent: 10})
	ledgerSvc := ledger.NewService(store, nil, ledger.Config{TaxRate: 0.015})
	svc := NewService(newMemoryReceipts(), catalogSvc, ledgerSvc, nil, nil)

	margin := 20.0
	receipt, err := svc.Record(context.Background(), RecordInput{
		SupplierName: "Acme Trading",
		Items: []ImportItem{{
			ProductName:   "Laser Mouse",
			Category:      "Peripherals",
			Quantity:      10,
			UnitCost:      1000,
			ProfitPercent: &margin,
		}},
	})
	require.NoError(t, err)
	require.Equal(t, float64(10000), receipt.TotalAmount)

	hits, err := catalogSvc.SearchProducts(context.Background(), "Laser Mouse", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)

	p := hits[0]
	require.Equal(t, 10, p.TotalInStock)
	require.Equal(t, float64(1000), p.AverageImportPrice)
	require.Equal(t, float64(1000), p.HighestImportPrice)
	require.Equal(t, float64(20), p.ProfitPercent)
	// 1000 * 1.20 * 1.015 = 1218
	require.Equal(t, float64(1218), p.SellingPrice)

	moves, err := ledgerSvc.Movements(context.Background(), p.ID, 10)
	require.NoError(t, err)
	require.Len(t, moves, 1)
	require.Equal(t, ledger.MovementPurchase, moves[0].Type)
	require.Equal(t, 10, moves[0].BalanceQty)
}

func TestDeleteReceiptKeepsLedger(t *testing.T) {
	cat := newFakeCatalog(catalog.Product{ID: "p1", Name: "Rice"})
	led := &fakeLedger{}
	repo := newMemoryReceipts()
	svc := NewService(repo, cat, led, nil, nil)
	ctx := context.Background()

	receipt, err := svc.Record(ctx, RecordInput{
		SupplierName: "Acme",
		Items:        []ImportItem{{ProductID: "p1", Quantity: 4, UnitCost: 25}},
	})
	require.NoError(t, err)
	applied := len(led.applied)

	require.NoError(t, svc.Delete(ctx, receipt.ID))
	_, err = svc.Get(ctx, receipt.ID)
	require.ErrorIs(t, err, ErrNotFound)
	require.Len(t, led.applied, applied, "deleting the document must not touch the ledger")

	require.ErrorIs(t, svc.Delete(ctx, receipt.ID), ErrNotFound)
}

// Package memory provides an in-process UnifiedDB used for local runs
// (DB_DRIVER=memory) and as the backing store of service and API tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/RoyceAzure/lab/ordercenter/internal/domain/model"
	"github.com/RoyceAzure/lab/ordercenter/internal/infra/repository/db"
)

type lineKey struct {
	orderID   int64
	productID int64
}

type state struct {
	products       map[int64]model.Product
	establishments map[int64]model.Establishment
	orders         map[int64]model.Order
	lines          map[lineKey]model.OrderLine

	productSeq       int64
	establishmentSeq int64
	orderSeq         int64
}

func newState() *state {
	return &state{
		products:       make(map[int64]model.Product),
		establishments: make(map[int64]model.Establishment),
		orders:         make(map[int64]model.Order),
		lines:          make(map[lineKey]model.OrderLine),
	}
}

func (s *state) clone() *state {
	c := &state{
		products:         make(map[int64]model.Product, len(s.products)),
		establishments:   make(map[int64]model.Establishment, len(s.establishments)),
		orders:           make(map[int64]model.Order, len(s.orders)),
		lines:            make(map[lineKey]model.OrderLine, len(s.lines)),
		productSeq:       s.productSeq,
		establishmentSeq: s.establishmentSeq,
		orderSeq:         s.orderSeq,
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.establishments {
		c.establishments[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.lines {
		c.lines[k] = v
	}
	return c
}

// MemoryDB keeps rows by value; every read returns a copy.
// ExecTx serializes transactions and restores a snapshot when fn fails;
// writes outside a transaction wait for the running one.
type MemoryDB struct {
	mu    sync.RWMutex
	txMu  sync.Mutex
	state *state
	now   func() time.Time
}

func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		state: newState(),
		now:   time.Now,
	}
}

func (m *MemoryDB) InitMigrate() error { return nil }

func (m *MemoryDB) ExecTx(ctx context.Context, fn func(tx db.UnifiedDB) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.RLock()
	snapshot := m.state.clone()
	m.mu.RUnlock()

	if err := fn(txView{m}); err != nil {
		m.mu.Lock()
		m.state = snapshot
		m.mu.Unlock()
		return err
	}
	return nil
}

// txView is handed to ExecTx callbacks; nested ExecTx joins the outer one.
type txView struct {
	*MemoryDB
}

func (t txView) ExecTx(ctx context.Context, fn func(tx db.UnifiedDB) error) error {
	return fn(t)
}

// ---- products ----

func (m *MemoryDB) createProduct(ctx context.Context, product *model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if product.AvailableQuantity < 0 {
		return model.ErrNegativeStock
	}
	for _, p := range m.state.products {
		if p.Name == product.Name {
			return db.ErrDuplicateKey
		}
	}
	m.state.productSeq++
	product.ProductID = m.state.productSeq
	if product.Version == 0 {
		product.Version = 1
	}
	product.CreatedAt = m.now()
	product.UpdatedAt = product.CreatedAt
	m.state.products[product.ProductID] = *product
	return nil
}

func (m *MemoryDB) GetProductByID(ctx context.Context, productID int64) (*model.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.state.products[productID]
	if !ok {
		return nil, db.ErrRecordNotFound
	}
	return &p, nil
}

func (m *MemoryDB) saveProduct(ctx context.Context, product *model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if product.AvailableQuantity < 0 {
		return model.ErrNegativeStock
	}
	current, ok := m.state.products[product.ProductID]
	if !ok {
		return db.ErrRecordNotFound
	}
	if current.Version != product.Version {
		return db.ErrStaleProduct
	}
	for id, p := range m.state.products {
		if id != product.ProductID && p.Name == product.Name {
			return db.ErrDuplicateKey
		}
	}

	product.Version++
	product.CreatedAt = current.CreatedAt
	product.UpdatedAt = m.now()
	m.state.products[product.ProductID] = *product
	return nil
}

func (m *MemoryDB) deleteProduct(ctx context.Context, productID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.state.products[productID]; !ok {
		return db.ErrRecordNotFound
	}
	for k := range m.state.lines {
		if k.productID == productID {
			return db.ErrForeignKeyViolation
		}
	}
	delete(m.state.products, productID)
	return nil
}

func (m *MemoryDB) ListProducts(ctx context.Context, filter model.ProductFilter) ([]model.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	filter = filter.WithDefaults()
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	products := make([]model.Product, 0, len(m.state.products))
	for _, p := range m.state.products {
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		products = append(products, p)
	}

	less := func(a, b model.Product) int {
		switch filter.SortField {
		case model.ProductSortByPrice:
			return a.Price.Cmp(b.Price)
		case model.ProductSortByAvailableQuantity:
			return a.AvailableQuantity - b.AvailableQuantity
		default:
			return strings.Compare(a.Name, b.Name)
		}
	}
	sort.SliceStable(products, func(i, j int) bool {
		c := less(products[i], products[j])
		if c == 0 {
			return products[i].ProductID < products[j].ProductID
		}
		if filter.SortDir == model.SortDesc {
			return c > 0
		}
		return c < 0
	})
	return products, nil
}

func (m *MemoryDB) GetAllocatedQuantities(ctx context.Context) (map[int64]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	allocated := make(map[int64]int)
	for k, l := range m.state.lines {
		allocated[k.productID] += l.Quantity
	}
	return allocated, nil
}

// ---- orders ----

func (m *MemoryDB) loadOrder(o model.Order, withRelations bool) model.Order {
	lines := make([]model.OrderLine, 0)
	for k, l := range m.state.lines {
		if k.orderID != o.OrderID {
			continue
		}
		if withRelations {
			if p, ok := m.state.products[k.productID]; ok {
				l.Product = &p
			}
		}
		lines = append(lines, l)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })
	o.Lines = lines
	if withRelations {
		if e, ok := m.state.establishments[o.EstablishmentID]; ok {
			o.Establishment = &e
		}
	}
	return o
}

func (m *MemoryDB) GetOrderWithLines(ctx context.Context, orderID int64) (*model.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.state.orders[orderID]
	if !ok {
		return nil, db.ErrRecordNotFound
	}
	o = m.loadOrder(o, true)
	return &o, nil
}

func (m *MemoryDB) ListOrders(ctx context.Context, sortByDateDesc bool) ([]model.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	orders := make([]model.Order, 0, len(m.state.orders))
	for _, o := range m.state.orders {
		orders = append(orders, m.loadOrder(o, true))
	}
	sort.Slice(orders, func(i, j int) bool {
		a, b := orders[i], orders[j]
		if !a.Date.Equal(b.Date) {
			if sortByDateDesc {
				return a.Date.After(b.Date)
			}
			return a.Date.Before(b.Date)
		}
		if sortByDateDesc {
			return a.OrderID > b.OrderID
		}
		return a.OrderID < b.OrderID
	})
	return orders, nil
}

func (m *MemoryDB) ListOrdersByEstablishment(ctx context.Context, establishmentID int64) ([]model.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	orders := make([]model.Order, 0)
	for _, o := range m.state.orders {
		if o.EstablishmentID == establishmentID {
			orders = append(orders, m.loadOrder(o, false))
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].OrderID < orders[j].OrderID })
	return orders, nil
}

func (m *MemoryDB) saveOrder(ctx context.Context, order *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.state.establishments[order.EstablishmentID]; !ok {
		return db.ErrForeignKeyViolation
	}

	now := m.now()
	if order.OrderID == 0 {
		m.state.orderSeq++
		order.OrderID = m.state.orderSeq
		order.CreatedAt = now
	} else if current, ok := m.state.orders[order.OrderID]; ok {
		order.CreatedAt = current.CreatedAt
	} else {
		order.CreatedAt = now
	}
	order.UpdatedAt = now

	stored := *order
	stored.Lines = nil
	stored.Establishment = nil
	m.state.orders[order.OrderID] = stored
	return nil
}

func (m *MemoryDB) deleteOrder(ctx context.Context, order *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.state.orders[order.OrderID]; !ok {
		return db.ErrRecordNotFound
	}
	m.deleteOrderLocked(order.OrderID)
	return nil
}

func (m *MemoryDB) deleteOrderLocked(orderID int64) {
	for k := range m.state.lines {
		if k.orderID == orderID {
			delete(m.state.lines, k)
		}
	}
	delete(m.state.orders, orderID)
}

func (m *MemoryDB) GetLine(ctx context.Context, orderID, productID int64) (*model.OrderLine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	l, ok := m.state.lines[lineKey{orderID, productID}]
	if !ok {
		return nil, db.ErrRecordNotFound
	}
	return &l, nil
}

func (m *MemoryDB) saveLine(ctx context.Context, line *model.OrderLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if line.Quantity <= 0 {
		return model.ErrLineQuantityNotPositive
	}
	if line.Price.IsNegative() {
		return model.ErrLinePriceNegative
	}
	if line.Price.GreaterThan(model.MaxMoney) {
		return model.ErrLinePriceTooLarge
	}
	if _, ok := m.state.orders[line.OrderID]; !ok {
		return db.ErrForeignKeyViolation
	}
	if _, ok := m.state.products[line.ProductID]; !ok {
		return db.ErrForeignKeyViolation
	}

	key := lineKey{line.OrderID, line.ProductID}
	now := m.now()
	if current, ok := m.state.lines[key]; ok {
		line.CreatedAt = current.CreatedAt
	} else {
		line.CreatedAt = now
	}
	line.UpdatedAt = now

	stored := *line
	stored.Product = nil
	m.state.lines[key] = stored
	return nil
}

func (m *MemoryDB) deleteLine(ctx context.Context, line *model.OrderLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := lineKey{line.OrderID, line.ProductID}
	if _, ok := m.state.lines[key]; !ok {
		return db.ErrRecordNotFound
	}
	delete(m.state.lines, key)
	return nil
}

func (m *MemoryDB) CountLinesByProduct(ctx context.Context, productID int64) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var count int64
	for k := range m.state.lines {
		if k.productID == productID {
			count++
		}
	}
	return count, nil
}

// ---- establishments ----

func (m *MemoryDB) createEstablishment(ctx context.Context, establishment *model.Establishment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.state.establishments {
		if e.Name == establishment.Name || e.Email == establishment.Email || e.Phone == establishment.Phone {
			return db.ErrDuplicateKey
		}
	}
	m.state.establishmentSeq++
	establishment.EstablishmentID = m.state.establishmentSeq
	establishment.CreatedAt = m.now()
	establishment.UpdatedAt = establishment.CreatedAt
	m.state.establishments[establishment.EstablishmentID] = *establishment
	return nil
}

func (m *MemoryDB) GetEstablishmentByID(ctx context.Context, establishmentID int64) (*model.Establishment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.state.establishments[establishmentID]
	if !ok {
		return nil, db.ErrRecordNotFound
	}
	return &e, nil
}

func (m *MemoryDB) ListEstablishments(ctx context.Context) ([]model.Establishment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	establishments := make([]model.Establishment, 0, len(m.state.establishments))
	for _, e := range m.state.establishments {
		establishments = append(establishments, e)
	}
	sort.Slice(establishments, func(i, j int) bool {
		return establishments[i].EstablishmentID < establishments[j].EstablishmentID
	})
	return establishments, nil
}

func (m *MemoryDB) deleteEstablishment(ctx context.Context, establishmentID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.state.establishments[establishmentID]; !ok {
		return db.ErrRecordNotFound
	}
	for id, o := range m.state.orders {
		if o.EstablishmentID == establishmentID {
			m.deleteOrderLocked(id)
		}
	}
	delete(m.state.establishments, establishmentID)
	return nil
}

// ---- mutations ----
//
// 交易外的單筆寫入與 ExecTx 共用 txMu, 交易還原快照時不會有其他寫入.
// txView 已持有 txMu, 直接呼叫未加鎖的版本.

func (m *MemoryDB) CreateProduct(ctx context.Context, product *model.Product) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return m.createProduct(ctx, product)
}

func (t txView) CreateProduct(ctx context.Context, product *model.Product) error {
	return t.createProduct(ctx, product)
}

func (m *MemoryDB) SaveProduct(ctx context.Context, product *model.Product) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return m.saveProduct(ctx, product)
}

func (t txView) SaveProduct(ctx context.Context, product *model.Product) error {
	return t.saveProduct(ctx, product)
}

func (m *MemoryDB) DeleteProduct(ctx context.Context, productID int64) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return m.deleteProduct(ctx, productID)
}

func (t txView) DeleteProduct(ctx context.Context, productID int64) error {
	return t.deleteProduct(ctx, productID)
}

func (m *MemoryDB) SaveOrder(ctx context.Context, order *model.Order) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return m.saveOrder(ctx, order)
}

func (t txView) SaveOrder(ctx context.Context, order *model.Order) error {
	return t.saveOrder(ctx, order)
}

func (m *MemoryDB) DeleteOrder(ctx context.Context, order *model.Order) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return m.deleteOrder(ctx, order)
}

func (t txView) DeleteOrder(ctx context.Context, order *model.Order) error {
	return t.deleteOrder(ctx, order)
}

func (m *MemoryDB) SaveLine(ctx context.Context, line *model.OrderLine) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return m.saveLine(ctx, line)
}

func (t txView) SaveLine(ctx context.Context, line *model.OrderLine) error {
	return t.saveLine(ctx, line)
}

func (m *MemoryDB) DeleteLine(ctx context.Context, line *model.OrderLine) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return m.deleteLine(ctx, line)
}

func (t txView) DeleteLine(ctx context.Context, line *model.OrderLine) error {
	return t.deleteLine(ctx, line)
}

func (m *MemoryDB) CreateEstablishment(ctx context.Context, establishment *model.Establishment) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return m.createEstablishment(ctx, establishment)
}

func (t txView) CreateEstablishment(ctx context.Context, establishment *model.Establishment) error {
	return t.createEstablishment(ctx, establishment)
}

func (m *MemoryDB) DeleteEstablishment(ctx context.Context, establishmentID int64) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return m.deleteEstablishment(ctx, establishmentID)
}

func (t txView) DeleteEstablishment(ctx context.Context, establishmentID int64) error {
	return t.deleteEstablishment(ctx, establishmentID)
}

var (
	_ db.UnifiedDB = (*MemoryDB)(nil)
	_ db.UnifiedDB = txView{}
)

package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rebika14/eyee-wear-store/internal/models"
)

const refetchTimeout = 10 * time.Second

// ProductLister is the data source behind the product view.
type ProductLister interface {
	List(ctx context.Context) ([]models.Product, error)
}

// OrderLister is the data source behind the order view.
type OrderLister interface {
	ListWithCustomers(ctx context.Context) ([]models.Order, error)
}

// CustomerLister is the data source behind the customer view.
type CustomerLister interface {
	List(ctx context.Context) ([]models.Customer, error)
}

// ProductView keeps an in-memory catalog in sync with the products feed:
// inserts prepend, updates replace by id, deletes filter by id.
type ProductView struct {
	mu       sync.RWMutex
	products []models.Product

	source ProductLister
	feed   Feed
	logger *zap.Logger
	cancel func()
}

func NewProductView(source ProductLister, feed Feed, logger *zap.Logger) *ProductView {
	return &ProductView{source: source, feed: feed, logger: logger}
}

// Start loads the initial catalog and subscribes to changes. Stop must be
// called when the view is no longer needed.
func (v *ProductView) Start(ctx context.Context) error {
	products, err := v.source.List(ctx)
	if err != nil {
		return err
	}
	v.mu.Lock()
	v.products = products
	v.mu.Unlock()

	cancel, err := v.feed.Subscribe(ctx, TableProducts, v.apply)
	if err != nil {
		return err
	}
	v.cancel = cancel
	return nil
}

func (v *ProductView) Stop() {
	if v.cancel != nil {
		v.cancel()
	}
}

// Snapshot returns a copy of the current catalog, newest first.
func (v *ProductView) Snapshot() []models.Product {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]models.Product, len(v.products))
	copy(out, v.products)
	return out
}

func (v *ProductView) apply(ev Event) {
	switch ev.Type {
	case EventInsert, EventUpdate:
		var product models.Product
		if err := json.Unmarshal(ev.Record, &product); err != nil {
			v.logger.Warn("Dropping undecodable product record", zap.Error(err))
			return
		}
		v.mu.Lock()
		defer v.mu.Unlock()
		if ev.Type == EventInsert {
			v.products = append([]models.Product{product}, v.products...)
			return
		}
		for i := range v.products {
			if v.products[i].ID == product.ID {
				v.products[i] = product
				return
			}
		}
	case EventDelete:
		v.mu.Lock()
		defer v.mu.Unlock()
		kept := v.products[:0]
		for _, p := range v.products {
			if p.ID != ev.RecordID {
				kept = append(kept, p)
			}
		}
		v.products = kept
	}
}

// OrderView keeps the joined order+customer projection in sync. Because the
// display needs the join and cross-table event ordering is not guaranteed,
// any change on orders or customers triggers a full refetch instead of an
// incremental patch.
type OrderView struct {
	mu     sync.RWMutex
	orders []models.Order

	source  OrderLister
	feed    Feed
	logger  *zap.Logger
	cancels []func()
}

func NewOrderView(source OrderLister, feed Feed, logger *zap.Logger) *OrderView {
	return &OrderView{source: source, feed: feed, logger: logger}
}

func (v *OrderView) Start(ctx context.Context) error {
	if err := v.refetch(ctx); err != nil {
		return err
	}

	for _, table := range []string{TableOrders, TableCustomers} {
		cancel, err := v.feed.Subscribe(ctx, table, func(Event) {
			rctx, done := context.WithTimeout(context.Background(), refetchTimeout)
			defer done()
			if err := v.refetch(rctx); err != nil {
				v.logger.Warn("Order view refetch failed", zap.Error(err))
			}
		})
		if err != nil {
			v.Stop()
			return err
		}
		v.cancels = append(v.cancels, cancel)
	}
	return nil
}

func (v *OrderView) Stop() {
	for _, cancel := range v.cancels {
		cancel()
	}
	v.cancels = nil
}

func (v *OrderView) Snapshot() []models.Order {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]models.Order, len(v.orders))
	copy(out, v.orders)
	return out
}

func (v *OrderView) refetch(ctx context.Context) error {
	orders, err := v.source.ListWithCustomers(ctx)
	if err != nil {
		return err
	}
	v.mu.Lock()
	v.orders = orders
	v.mu.Unlock()
	return nil
}

// CustomerView keeps an in-memory customer list in sync with incremental
// patches, like the product view.
type CustomerView struct {
	mu        sync.RWMutex
	customers []models.Customer

	source CustomerLister
	feed   Feed
	logger *zap.Logger
	cancel func()
}

func NewCustomerView(source CustomerLister, feed Feed, logger *zap.Logger) *CustomerView {
	return &CustomerView{source: source, feed: feed, logger: logger}
}

func (v *CustomerView) Start(ctx context.Context) error {
	customers, err := v.source.List(ctx)
	if err != nil {
		return err
	}
	v.mu.Lock()
	v.customers = customers
	v.mu.Unlock()

	cancel, err := v.feed.Subscribe(ctx, TableCustomers, v.apply)
	if err != nil {
		return err
	}
	v.cancel = cancel
	return nil
}

func (v *CustomerView) Stop() {
	if v.cancel != nil {
		v.cancel()
	}
}

func (v *CustomerView) Snapshot() []models.Customer {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]models.Customer, len(v.customers))
	copy(out, v.customers)
	return out
}

func (v *CustomerView) apply(ev Event) {
	switch ev.Type {
	case EventInsert, EventUpdate:
		var customer models.Customer
		if err := json.Unmarshal(ev.Record, &customer); err != nil {
			v.logger.Warn("Dropping undecodable customer record", zap.Error(err))
			return
		}
		v.mu.Lock()
		defer v.mu.Unlock()
		if ev.Type == EventInsert {
			v.customers = append([]models.Customer{customer}, v.customers...)
			return
		}
		for i := range v.customers {
			if v.customers[i].ID == customer.ID {
				v.customers[i] = customer
				return
			}
		}
	case EventDelete:
		v.mu.Lock()
		defer v.mu.Unlock()
		kept := v.customers[:0]
		for _, c := range v.customers {
			if c.ID != ev.RecordID {
				kept = append(kept, c)
			}
		}
		v.customers = kept
	}
}

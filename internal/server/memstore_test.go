package server

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/hongminglow/storefront-api/internal/models"
	"github.com/hongminglow/storefront-api/internal/query"
	"github.com/hongminglow/storefront-api/internal/storage"
)

// memStore is an in-memory implementation of every store interface. Lists
// honour only "userId = n" filters, which is all the router tests need.
type memStore struct {
	mu         sync.Mutex
	nextID     int64
	users      map[int64]models.User
	tokens     map[string]models.Token
	categories map[int64]models.Category
	products   map[int64]models.Product
	orders     map[int64]models.Order
	lastOrders storage.ListParams
	pingErr    error
}

func newMemStore() *memStore {
	return &memStore{
		users:      map[int64]models.User{},
		tokens:     map[string]models.Token{},
		categories: map[int64]models.Category{},
		products:   map[int64]models.Product{},
		orders:     map[int64]models.Order{},
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) Ping(context.Context) error { return m.pingErr }

func ownerFilter(f query.Filter) (int64, bool) {
	c, ok := f.Get("userId")
	if !ok || c.Op != query.Eq {
		return 0, false
	}
	id, err := strconv.ParseInt(c.Value, 10, 64)
	return id, err == nil
}

func sortedKeys[T any](m map[int64]T) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// --- users and tokens ---

func (m *memStore) CreateUser(_ context.Context, u models.User) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return models.User{}, storage.ErrAlreadyExists
		}
	}
	u.ID = m.id()
	u.CreatedAt = time.Now()
	m.users[u.ID] = u
	return u, nil
}

func (m *memStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, storage.ErrNotFound
}

func (m *memStore) FindByID(_ context.Context, id int64) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (m *memStore) ListUsers(context.Context, storage.ListParams) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.User{}
	for _, k := range sortedKeys(m.users) {
		out = append(out, m.users[k])
	}
	return out, nil
}

func tokenKey(userID int64, typ models.TokenType) string {
	return strconv.FormatInt(userID, 10) + "/" + string(typ)
}

func (m *memStore) UpsertToken(_ context.Context, tok models.Token) (models.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := tokenKey(tok.UserID, tok.Type)
	if existing, ok := m.tokens[k]; ok {
		tok.ID = existing.ID
	} else {
		tok.ID = m.id()
	}
	m.tokens[k] = tok
	return tok, nil
}

func (m *memStore) FindToken(_ context.Context, userID int64, typ models.TokenType) (models.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tok, ok := m.tokens[tokenKey(userID, typ)]
	if !ok {
		return models.Token{}, storage.ErrNotFound
	}
	return tok, nil
}

// --- categories ---

func (m *memStore) ListCategories(context.Context, storage.ListParams) ([]models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Category{}
	for _, k := range sortedKeys(m.categories) {
		out = append(out, m.categories[k])
	}
	return out, nil
}

func (m *memStore) FindCategory(_ context.Context, id int64) (models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok {
		return models.Category{}, storage.ErrNotFound
	}
	return c, nil
}

func (m *memStore) CategoryExists(_ context.Context, id, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	return ok && c.UserID == userID, nil
}

func (m *memStore) CreateCategory(_ context.Context, c models.Category) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = m.id()
	m.categories[c.ID] = c
	return c.ID, nil
}

func (m *memStore) UpdateCategory(_ context.Context, id int64, patch storage.CategoryPatch) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok {
		return 0, nil
	}
	if patch.Title != nil {
		c.Title = *patch.Title
	}
	m.categories[id] = c
	return 1, nil
}

func (m *memStore) DeleteCategory(_ context.Context, id int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[id]; !ok {
		return 0, nil
	}
	delete(m.categories, id)
	return 1, nil
}

// --- products ---

func (m *memStore) ListProducts(context.Context, storage.ListParams) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Product{}
	for _, k := range sortedKeys(m.products) {
		out = append(out, m.products[k])
	}
	return out, nil
}

func (m *memStore) FindProduct(_ context.Context, id int64) (models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return models.Product{}, storage.ErrNotFound
	}
	return p, nil
}

func (m *memStore) ProductExists(_ context.Context, id, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	return ok && p.UserID == userID, nil
}

func (m *memStore) CreateProduct(_ context.Context, p models.Product) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.id()
	m.products[p.ID] = p
	return p.ID, nil
}

func (m *memStore) UpdateProduct(_ context.Context, id int64, patch storage.ProductPatch) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return 0, nil
	}
	if patch.Quantity != nil {
		p.Quantity = *patch.Quantity
	}
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	m.products[id] = p
	return 1, nil
}

func (m *memStore) DeleteProduct(_ context.Context, id int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return 0, nil
	}
	delete(m.products, id)
	return 1, nil
}

// --- orders ---

func (m *memStore) ListOrders(_ context.Context, params storage.ListParams) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastOrders = params
	owner, scoped := ownerFilter(params.Filter)
	out := []models.Order{}
	for _, k := range sortedKeys(m.orders) {
		o := m.orders[k]
		if scoped && o.UserID != owner {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (m *memStore) FindOrder(_ context.Context, id int64) (models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return models.Order{}, storage.ErrNotFound
	}
	return o, nil
}

func (m *memStore) OrderExists(_ context.Context, id, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	return ok && o.UserID == userID, nil
}

func (m *memStore) CreateOrder(_ context.Context, o models.Order) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o.ID = m.id()
	m.orders[o.ID] = o
	return o.ID, nil
}

func (m *memStore) UpdateOrder(_ context.Context, id int64, patch storage.OrderPatch) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return 0, nil
	}
	if patch.ProductID != nil {
		o.ProductID = *patch.ProductID
	}
	if patch.Quantity != nil {
		o.Quantity = *patch.Quantity
	}
	if patch.Paid != nil {
		o.Paid = *patch.Paid
	}
	m.orders[id] = o
	return 1, nil
}

func (m *memStore) DeleteOrder(_ context.Context, id int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[id]; !ok {
		return 0, nil
	}
	delete(m.orders, id)
	return 1, nil
}

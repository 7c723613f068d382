package service_test

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/linemk/ecofinds/internal/domain/models"
	"github.com/linemk/ecofinds/internal/storage"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func session(userID int64) *models.Session {
	return &models.Session{ID: "sess", UserID: userID, ExpiresAt: time.Now().Add(time.Hour)}
}

type fakeUserRepo struct {
	users     map[string]*models.User // ключ — email
	createErr error
	lockErr   error
}

var _ storage.UserStorage = (*fakeUserRepo)(nil)

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User)}
}

func (f *fakeUserRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := f.users[email]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, ok := f.users[user.Email]; ok {
		return nil, storage.ErrEmailTaken
	}
	user.ID = int64(len(f.users) + 1)
	f.users[user.Email] = user
	return user, nil
}

func (f *fakeUserRepo) UpdateDisplayName(ctx context.Context, id int64, displayName string) (*models.User, error) {
	u, err := f.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.DisplayName = displayName
	return u, nil
}

func (f *fakeUserRepo) LockUserByIDTx(ctx context.Context, tx *sql.Tx, id int64) (*models.User, error) {
	if f.lockErr != nil {
		return nil, f.lockErr
	}
	return f.GetUserByID(ctx, id)
}

func (f *fakeUserRepo) add(id int64, email string) *models.User {
	u := &models.User{ID: id, Email: email, DisplayName: "User", PassHash: []byte("hashed")}
	f.users[email] = u
	return u
}

type fakeSessionRepo struct {
	sessions map[string]*models.Session
}

var _ storage.SessionStorage = (*fakeSessionRepo)(nil)

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*models.Session)}
}

func (f *fakeSessionRepo) CreateSession(ctx context.Context, s *models.Session) error {
	s.CreatedAt = time.Now()
	f.sessions[s.ID] = s
	return nil
}

func (f *fakeSessionRepo) GetSessionByID(ctx context.Context, id string) (*models.Session, error) {
	s, ok := f.sessions[id]
	if !ok || !s.ExpiresAt.After(time.Now()) {
		return nil, storage.ErrSessionNotFound
	}
	return s, nil
}

func (f *fakeSessionRepo) DeleteSession(ctx context.Context, id string) error {
	delete(f.sessions, id)
	return nil
}

type fakeProductRepo struct {
	products map[int64]*models.Product
	nextID   int64
	clock    time.Time
}

var _ storage.ProductStorage = (*fakeProductRepo)(nil)

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{
		products: make(map[int64]*models.Product),
		clock:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (f *fakeProductRepo) tick() time.Time {
	f.clock = f.clock.Add(time.Minute)
	return f.clock
}

func (f *fakeProductRepo) CreateProduct(ctx context.Context, p *models.Product) (*models.Product, error) {
	f.nextID++
	p.ID = f.nextID
	p.CreatedAt = f.tick()
	p.UpdatedAt = p.CreatedAt
	stored := *p
	f.products[p.ID] = &stored
	return p, nil
}

func (f *fakeProductRepo) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, storage.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProductRepo) UpdateProduct(ctx context.Context, p *models.Product) (*models.Product, error) {
	stored, ok := f.products[p.ID]
	if !ok || !stored.Active() {
		return nil, storage.ErrProductNotFound
	}
	stored.Title = p.Title
	stored.Description = p.Description
	stored.Category = p.Category
	stored.Price = p.Price
	stored.ImageURL = p.ImageURL
	stored.UpdatedAt = f.tick()
	cp := *stored
	return &cp, nil
}

func (f *fakeProductRepo) SoftDeleteProduct(ctx context.Context, id int64) error {
	stored, ok := f.products[id]
	if !ok || !stored.Active() {
		return storage.ErrProductNotFound
	}
	now := f.tick()
	stored.DeletedAt = &now
	return nil
}

func (f *fakeProductRepo) ListProducts(ctx context.Context, filter models.ProductFilter) ([]*models.Product, error) {
	return f.list(func(p *models.Product) bool {
		if filter.Query != "" && !strings.Contains(strings.ToLower(p.Title), strings.ToLower(filter.Query)) {
			return false
		}
		return filter.Category == "" || p.Category == filter.Category
	}), nil
}

func (f *fakeProductRepo) ListProductsByOwner(ctx context.Context, ownerID int64) ([]*models.Product, error) {
	return f.list(func(p *models.Product) bool { return p.OwnerID == ownerID }), nil
}

func (f *fakeProductRepo) CountProductsByOwner(ctx context.Context, ownerID int64) (int, error) {
	products, _ := f.ListProductsByOwner(ctx, ownerID)
	return len(products), nil
}

func (f *fakeProductRepo) list(match func(p *models.Product) bool) []*models.Product {
	res := make([]*models.Product, 0)
	for _, p := range f.products {
		if p.Active() && match(p) {
			cp := *p
			res = append(res, &cp)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return res
}

func (f *fakeProductRepo) add(ownerID int64, title string, price int64) *models.Product {
	p, _ := f.CreateProduct(context.Background(), &models.Product{
		OwnerID:  ownerID,
		Title:    title,
		Category: models.CategoryOther,
		Price:    price,
	})
	return p
}

type fakeCartItem struct {
	id        int64
	userID    int64
	productID int64
	quantity  int
}

// fakeCartRepo собирает строки корзины из товаров fakeProductRepo, как JOIN в настоящем хранилище.
type fakeCartRepo struct {
	products  *fakeProductRepo
	items     []*fakeCartItem
	nextID    int64
	lockErr   error
	deleteErr error
	// deleteShort имитирует строку корзины, которую успели удалить параллельно
	deleteShort bool
}

var _ storage.CartStorage = (*fakeCartRepo)(nil)

func newFakeCartRepo(products *fakeProductRepo) *fakeCartRepo {
	return &fakeCartRepo{products: products}
}

func (f *fakeCartRepo) find(userID, productID int64) *fakeCartItem {
	for _, it := range f.items {
		if it.userID == userID && it.productID == productID {
			return it
		}
	}
	return nil
}

func (f *fakeCartRepo) AddItem(ctx context.Context, userID, productID int64, quantity, limit int) error {
	if it := f.find(userID, productID); it != nil {
		if it.quantity+quantity > limit {
			return storage.ErrQuantityLimit
		}
		it.quantity += quantity
		return nil
	}
	f.nextID++
	f.items = append(f.items, &fakeCartItem{id: f.nextID, userID: userID, productID: productID, quantity: quantity})
	return nil
}

func (f *fakeCartRepo) SetItemQuantity(ctx context.Context, userID, productID int64, quantity int) error {
	if it := f.find(userID, productID); it != nil {
		it.quantity = quantity
		return nil
	}
	f.nextID++
	f.items = append(f.items, &fakeCartItem{id: f.nextID, userID: userID, productID: productID, quantity: quantity})
	return nil
}

func (f *fakeCartRepo) RemoveItem(ctx context.Context, userID, productID int64) error {
	kept := f.items[:0]
	for _, it := range f.items {
		if it.userID != userID || it.productID != productID {
			kept = append(kept, it)
		}
	}
	f.items = kept
	return nil
}

func (f *fakeCartRepo) GetCartLines(ctx context.Context, userID int64) ([]models.CartLine, error) {
	lines := make([]models.CartLine, 0)
	for _, it := range f.items {
		if it.userID != userID {
			continue
		}
		p := f.products.products[it.productID]
		lines = append(lines, models.CartLine{ItemID: it.id, Product: *p, Quantity: it.quantity})
	}
	return lines, nil
}

func (f *fakeCartRepo) LockCartLinesTx(ctx context.Context, tx *sql.Tx, userID int64) ([]models.CartLine, error) {
	if f.lockErr != nil {
		return nil, f.lockErr
	}
	return f.GetCartLines(ctx, userID)
}

func (f *fakeCartRepo) DeleteItemsTx(ctx context.Context, tx *sql.Tx, itemIDs []int64) (int64, error) {
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	if f.deleteShort {
		return int64(len(itemIDs) - 1), nil
	}
	ids := make(map[int64]bool, len(itemIDs))
	for _, id := range itemIDs {
		ids[id] = true
	}
	var deleted int64
	kept := f.items[:0]
	for _, it := range f.items {
		if ids[it.id] {
			deleted++
			continue
		}
		kept = append(kept, it)
	}
	f.items = kept
	return deleted, nil
}

func (f *fakeCartRepo) CountItemsByUser(ctx context.Context, userID int64) (int, error) {
	total := 0
	for _, it := range f.items {
		if it.userID == userID {
			total += it.quantity
		}
	}
	return total, nil
}

type fakeOrderRepo struct {
	orders  map[int64][]*models.Order // ключ: userID, новые первыми
	nextID  int64
	itemErr error
}

var _ storage.OrderStorage = (*fakeOrderRepo)(nil)

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[int64][]*models.Order)}
}

func (f *fakeOrderRepo) CreateOrderTx(ctx context.Context, tx *sql.Tx, userID int64, total int64) (*models.Order, error) {
	f.nextID++
	stored := &models.Order{ID: f.nextID, UserID: userID, Total: total, CreatedAt: time.Now(), Items: []models.OrderItem{}}
	f.orders[userID] = append([]*models.Order{stored}, f.orders[userID]...)
	cp := *stored
	cp.Items = nil
	return &cp, nil
}

func (f *fakeOrderRepo) CreateOrderItemTx(ctx context.Context, tx *sql.Tx, item *models.OrderItem) error {
	if f.itemErr != nil {
		return f.itemErr
	}
	for _, orders := range f.orders {
		for _, o := range orders {
			if o.ID == item.OrderID {
				item.ID = int64(len(o.Items) + 1)
				o.Items = append(o.Items, *item)
				return nil
			}
		}
	}
	return sql.ErrNoRows
}

func (f *fakeOrderRepo) GetOrdersByUserID(ctx context.Context, userID int64) ([]*models.Order, error) {
	if orders, ok := f.orders[userID]; ok {
		return orders, nil
	}
	return []*models.Order{}, nil
}

func (f *fakeOrderRepo) CountOrdersByUser(ctx context.Context, userID int64) (int, error) {
	return len(f.orders[userID]), nil
}

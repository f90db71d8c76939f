package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"storefront/internal/data/entity"
	"storefront/internal/data/repository"
	"storefront/pkg/jwtutil"
	"storefront/pkg/metrics"
	"storefront/pkg/signing"
	"storefront/pkg/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// memStore backs every fake repository with plain maps
type memStore struct {
	mu         sync.Mutex
	users      map[uuid.UUID]entity.User
	sessions   map[uuid.UUID]entity.Session
	categories map[uuid.UUID]entity.Category
	products   map[uuid.UUID]entity.Product
	images     map[uuid.UUID]entity.AdditionalImage
	comments   map[uuid.UUID]entity.Comment
	captchas   map[string]string
}

func newMemStore() *memStore {
	return &memStore{
		users:      map[uuid.UUID]entity.User{},
		sessions:   map[uuid.UUID]entity.Session{},
		categories: map[uuid.UUID]entity.Category{},
		products:   map[uuid.UUID]entity.Product{},
		images:     map[uuid.UUID]entity.AdditionalImage{},
		comments:   map[uuid.UUID]entity.Comment{},
		captchas:   map[string]string{},
	}
}

func (s *memStore) repos() *repository.Repository {
	return &repository.Repository{
		User:     &fakeUserRepo{s},
		Session:  &fakeSessionRepo{s},
		Category: &fakeCategoryRepo{s},
		Product:  &fakeProductRepo{s},
		Image:    &fakeImageRepo{s},
		Comment:  &fakeCommentRepo{s},
		Captcha:  &fakeCaptchaRepo{s},
	}
}

type fakeUserRepo struct{ s *memStore }

func (r *fakeUserRepo) Create(_ context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == user.Username || strings.EqualFold(u.Email, user.Email) {
			return fmt.Errorf("create user: %w", utils.ErrConflict)
		}
	}
	r.s.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) find(match func(entity.User) bool) *entity.User {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if match(u) {
			return &u
		}
	}
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	return r.find(func(u entity.User) bool { return u.ID == id }), nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	return r.find(func(u entity.User) bool { return strings.EqualFold(u.Email, email) }), nil
}

func (r *fakeUserRepo) FindByUsername(_ context.Context, username string) (*entity.User, error) {
	return r.find(func(u entity.User) bool { return u.Username == username }), nil
}

func (r *fakeUserRepo) filtered(filter repository.UserFilter) []*entity.User {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.User
	for _, u := range r.s.users {
		if filter.Activated != nil {
			if *filter.Activated && !(u.IsActive && u.IsActivated) {
				continue
			}
			if !*filter.Activated && (u.IsActive || u.IsActivated) {
				continue
			}
		}
		if filter.JoinedBefore != nil && !u.CreatedAt.Before(*filter.JoinedBefore) {
			continue
		}
		u := u
		out = append(out, &u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *fakeUserRepo) FindAll(_ context.Context, filter repository.UserFilter, limit, offset int) ([]*entity.User, error) {
	return paginate(r.filtered(filter), limit, offset), nil
}

func (r *fakeUserRepo) CountAll(_ context.Context, filter repository.UserFilter) (int64, error) {
	return int64(len(r.filtered(filter))), nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.s.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u := r.s.users[id]
	u.PasswordHash = passwordHash
	r.s.users[id] = u
	return nil
}

func (r *fakeUserRepo) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u := r.s.users[id]
	u.LastLogin = &at
	r.s.users[id] = u
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.s.users, id)
	for token, session := range r.s.sessions {
		if session.UserID == id {
			delete(r.s.sessions, token)
		}
	}
	return nil
}

type fakeSessionRepo struct{ s *memStore }

func (r *fakeSessionRepo) Create(_ context.Context, session *entity.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.sessions[session.Token] = *session
	return nil
}

func (r *fakeSessionRepo) FindValidSession(_ context.Context, token uuid.UUID, kind entity.SessionKind) (*entity.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	session, ok := r.s.sessions[token]
	if !ok || session.Kind != kind || session.RevokedAt != nil || !session.ExpiresAt.After(time.Now()) {
		return nil, nil
	}
	return &session, nil
}

func (r *fakeSessionRepo) Revoke(_ context.Context, token uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if session, ok := r.s.sessions[token]; ok && session.RevokedAt == nil {
		now := time.Now()
		session.RevokedAt = &now
		r.s.sessions[token] = session
	}
	return nil
}

func (r *fakeSessionRepo) RevokeAllUserSessions(_ context.Context, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	for token, session := range r.s.sessions {
		if session.UserID == userID && session.RevokedAt == nil {
			session.RevokedAt = &now
			r.s.sessions[token] = session
		}
	}
	return nil
}

func (r *fakeSessionRepo) CleanExpiredSessions(context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	cutoff := time.Now().Add(-7 * 24 * time.Hour)
	for token, session := range r.s.sessions {
		if session.ExpiresAt.Before(cutoff) {
			delete(r.s.sessions, token)
			n++
		}
	}
	return n, nil
}

type fakeCategoryRepo struct{ s *memStore }

func (r *fakeCategoryRepo) Create(_ context.Context, category *entity.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.categories {
		if c.Name == category.Name || c.Order == category.Order {
			return fmt.Errorf("create category: %w", utils.ErrConflict)
		}
	}
	r.s.categories[category.ID] = *category
	return nil
}

func (r *fakeCategoryRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.categories[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *fakeCategoryRepo) sorted(match func(entity.Category) bool) []*entity.Category {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Category
	for _, c := range r.s.categories {
		if match(c) {
			c := c
			if c.ParentID != nil {
				parent := r.s.categories[*c.ParentID]
				c.Parent = &parent
			}
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Parent != nil && b.Parent != nil && a.Parent.ID != b.Parent.ID {
			if a.Parent.Order != b.Parent.Order {
				return a.Parent.Order < b.Parent.Order
			}
			return a.Parent.Name < b.Parent.Name
		}
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return a.Name < b.Name
	})
	return out
}

func (r *fakeCategoryRepo) FindAll(context.Context) ([]*entity.Category, error) {
	return r.sorted(func(entity.Category) bool { return true }), nil
}

func (r *fakeCategoryRepo) FindTopLevel(context.Context) ([]*entity.Category, error) {
	return r.sorted(func(c entity.Category) bool { return c.ParentID == nil }), nil
}

func (r *fakeCategoryRepo) FindSubcategories(_ context.Context, parentID *uuid.UUID) ([]*entity.Category, error) {
	return r.sorted(func(c entity.Category) bool {
		return c.ParentID != nil && (parentID == nil || *c.ParentID == *parentID)
	}), nil
}

func (r *fakeCategoryRepo) Update(_ context.Context, category *entity.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.categories {
		if c.ID != category.ID && (c.Name == category.Name || c.Order == category.Order) {
			return fmt.Errorf("update category: %w", utils.ErrConflict)
		}
	}
	stored := *category
	stored.Parent = nil
	r.s.categories[category.ID] = stored
	return nil
}

func (r *fakeCategoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.products {
		if p.CategoryID == id {
			return fmt.Errorf("delete category: %w", utils.ErrIntegrity)
		}
	}
	delete(r.s.categories, id)
	return nil
}

func (r *fakeCategoryRepo) CountChildren(_ context.Context, id uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, c := range r.s.categories {
		if c.ParentID != nil && *c.ParentID == id {
			n++
		}
	}
	return n, nil
}

func (r *fakeCategoryRepo) CountProducts(_ context.Context, id uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, p := range r.s.products {
		if p.CategoryID == id {
			n++
		}
	}
	return n, nil
}

type fakeProductRepo struct{ s *memStore }

func (r *fakeProductRepo) Create(_ context.Context, product *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.products[product.ID] = *product
	return nil
}

func (r *fakeProductRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *fakeProductRepo) Update(_ context.Context, product *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.products[product.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	updated := *product
	updated.SellerID = stored.SellerID
	updated.CreatedAt = stored.CreatedAt
	r.s.products[product.ID] = updated
	return nil
}

func (r *fakeProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.s.products, id)
	return nil
}

func (r *fakeProductRepo) filtered(match func(entity.Product) bool) []*entity.Product {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Product
	for _, p := range r.s.products {
		if match(p) {
			p := p
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *fakeProductRepo) FindActive(_ context.Context, limit int) ([]*entity.Product, error) {
	return paginate(r.filtered(func(p entity.Product) bool { return p.IsActive }), limit, 0), nil
}

func matchesCategory(categoryID uuid.UUID, keyword string) func(entity.Product) bool {
	keyword = strings.ToLower(keyword)
	return func(p entity.Product) bool {
		if !p.IsActive || p.CategoryID != categoryID {
			return false
		}
		return keyword == "" ||
			strings.Contains(strings.ToLower(p.Title), keyword) ||
			strings.Contains(strings.ToLower(p.Content), keyword)
	}
}

func (r *fakeProductRepo) FindActiveByCategory(_ context.Context, categoryID uuid.UUID, keyword string, limit, offset int) ([]*entity.Product, error) {
	return paginate(r.filtered(matchesCategory(categoryID, keyword)), limit, offset), nil
}

func (r *fakeProductRepo) CountActiveByCategory(_ context.Context, categoryID uuid.UUID, keyword string) (int64, error) {
	return int64(len(r.filtered(matchesCategory(categoryID, keyword)))), nil
}

func (r *fakeProductRepo) FindBySeller(_ context.Context, sellerID uuid.UUID) ([]*entity.Product, error) {
	return r.filtered(func(p entity.Product) bool { return p.SellerID == sellerID }), nil
}

func (r *fakeProductRepo) CountBySeller(_ context.Context, sellerID uuid.UUID) (int64, error) {
	return int64(len(r.filtered(func(p entity.Product) bool { return p.SellerID == sellerID }))), nil
}

func (r *fakeProductRepo) DeleteBySeller(_ context.Context, sellerID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, p := range r.s.products {
		if p.SellerID == sellerID {
			delete(r.s.products, id)
			n++
		}
	}
	return n, nil
}

type fakeImageRepo struct{ s *memStore }

func (r *fakeImageRepo) FindByProduct(_ context.Context, productID uuid.UUID) ([]*entity.AdditionalImage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.AdditionalImage
	for _, img := range r.s.images {
		if img.ProductID == productID {
			img := img
			out = append(out, &img)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeImageRepo) ReplaceForProduct(ctx context.Context, productID uuid.UUID, images []string) error {
	if _, err := r.DeleteByProduct(ctx, productID); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	for i, image := range images {
		id := uuid.New()
		r.s.images[id] = entity.AdditionalImage{
			BaseSimple: entity.BaseSimple{ID: id, CreatedAt: now.Add(time.Duration(i) * time.Microsecond)},
			ProductID:  productID,
			Image:      image,
		}
	}
	return nil
}

func (r *fakeImageRepo) DeleteByProduct(_ context.Context, productID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, img := range r.s.images {
		if img.ProductID == productID {
			delete(r.s.images, id)
			n++
		}
	}
	return n, nil
}

func (r *fakeImageRepo) DeleteBySeller(_ context.Context, sellerID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, img := range r.s.images {
		if p, ok := r.s.products[img.ProductID]; ok && p.SellerID == sellerID {
			delete(r.s.images, id)
			n++
		}
	}
	return n, nil
}

type fakeCommentRepo struct{ s *memStore }

func (r *fakeCommentRepo) Create(_ context.Context, comment *entity.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[comment.ProductID]; !ok {
		return fmt.Errorf("create comment: %w", utils.ErrIntegrity)
	}
	r.s.comments[comment.ID] = *comment
	return nil
}

func (r *fakeCommentRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.comments[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *fakeCommentRepo) filtered(match func(entity.Comment) bool) []*entity.Comment {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Comment
	for _, c := range r.s.comments {
		if match(c) {
			c := c
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *fakeCommentRepo) FindActiveByProduct(_ context.Context, productID uuid.UUID) ([]*entity.Comment, error) {
	return r.filtered(func(c entity.Comment) bool { return c.ProductID == productID && c.IsActive }), nil
}

func commentsOf(productID *uuid.UUID) func(entity.Comment) bool {
	return func(c entity.Comment) bool { return productID == nil || c.ProductID == *productID }
}

func (r *fakeCommentRepo) FindAll(_ context.Context, productID *uuid.UUID, limit, offset int) ([]*entity.Comment, error) {
	return paginate(r.filtered(commentsOf(productID)), limit, offset), nil
}

func (r *fakeCommentRepo) CountAll(_ context.Context, productID *uuid.UUID) (int64, error) {
	return int64(len(r.filtered(commentsOf(productID)))), nil
}

func (r *fakeCommentRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.comments[id]
	if !ok {
		return pgx.ErrNoRows
	}
	c.IsActive = active
	r.s.comments[id] = c
	return nil
}

type fakeCaptchaRepo struct{ s *memStore }

func (r *fakeCaptchaRepo) Save(_ context.Context, id, answer string, _ time.Duration) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.captchas[id] = answer
	return nil
}

func (r *fakeCaptchaRepo) Take(_ context.Context, id string) (string, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	answer, ok := r.s.captchas[id]
	delete(r.s.captchas, id)
	return answer, ok, nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// recordingNotifier counts dispatched events and can be made to fail
type recordingNotifier struct {
	mu         sync.Mutex
	comments   []CommentCreated
	registered []UserRegistered
	err        error
}

func (n *recordingNotifier) NotifyComment(_ context.Context, event CommentCreated) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.comments = append(n.comments, event)
	return n.err
}

func (n *recordingNotifier) NotifyRegistered(_ context.Context, event UserRegistered) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.registered = append(n.registered, event)
	return n.err
}

type testEnv struct {
	store    *memStore
	repo     *repository.Repository
	config   *utils.Config
	notifier *recordingNotifier
	signer   *signing.Signer
	service  *Service
}

func newTestEnv() *testEnv {
	store := newMemStore()
	repo := store.repos()

	config := &utils.Config{
		App:      utils.AppConfig{BaseURL: "http://shop.test"},
		Password: utils.PasswordConfig{MinLength: 8},
		Session:  utils.SessionConfig{CookieName: "sessionid", ExpiryHours: 1},
		Catalog:  utils.CatalogConfig{HomePageLimit: 20, CategoryPageSize: 2},
		Captcha:  utils.CaptchaConfig{Length: 5, TTLMinutes: 5},
	}

	signer, err := signing.New("test-secret", "storefront.activation", 0)
	if err != nil {
		panic(err)
	}

	notifier := &recordingNotifier{}
	deps := Deps{
		Signer: signer,
		JWT: jwtutil.NewJWTUtil(jwtutil.Config{
			SigningKey:    "jwt-secret",
			AccessExpiry:  5 * time.Minute,
			RefreshExpiry: time.Hour,
		}),
		Notifier: notifier,
		Metrics:  metrics.New(),
	}

	return &testEnv{
		store:    store,
		repo:     repo,
		config:   config,
		notifier: notifier,
		signer:   signer,
		service:  NewService(repo, config, deps, zap.NewNop()),
	}
}

func (e *testEnv) addUser(username string, sendMessages bool) *entity.User {
	hash, _ := utils.HashPassword("S3cure-pass")
	now := time.Now()
	user := entity.User{
		Base:         entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		Role:         entity.RoleCustomer,
		IsActive:     true,
		IsActivated:  true,
		SendMessages: sendMessages,
	}
	e.store.users[user.ID] = user
	return &user
}

func (e *testEnv) addCategory(name string, order int, parent *entity.Category) *entity.Category {
	now := time.Now()
	category := entity.Category{
		Base:  entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Name:  name,
		Order: order,
	}
	if parent != nil {
		category.ParentID = &parent.ID
	}
	e.store.categories[category.ID] = category
	return &category
}

func (e *testEnv) addProduct(title, content string, category *entity.Category, seller *entity.User, active bool, age time.Duration) *entity.Product {
	created := time.Now().Add(-age)
	product := entity.Product{
		Base:         entity.Base{ID: uuid.New(), CreatedAt: created, UpdatedAt: created},
		CategoryID:   category.ID,
		Title:        title,
		Content:      content,
		Manufacturer: "ACME",
		SellerID:     seller.ID,
		IsActive:     active,
	}
	e.store.products[product.ID] = product
	return &product
}

func (e *testEnv) addImage(product *entity.Product, image string) {
	id := uuid.New()
	e.store.images[id] = entity.AdditionalImage{
		BaseSimple: entity.BaseSimple{ID: id, CreatedAt: time.Now()},
		ProductID:  product.ID,
		Image:      image,
	}
}

package catalog

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"souq/internal/media"
	"souq/internal/store"
)

// fakeDB is an in-memory stand-in for the document store. The per-collection
// types below share it and satisfy the storage interfaces.
type fakeDB struct {
	mu sync.Mutex

	categories    map[primitive.ObjectID]*store.Category
	subCategories map[primitive.ObjectID]*store.SubCategory
	brands        map[primitive.ObjectID]*store.Brand
	products      map[primitive.ObjectID]*store.Product
	reviews       map[primitive.ObjectID]*store.Review

	calls map[string]int

	// Failure injection: when set, the matching ref-array write silently
	// does nothing, the way a lost write would look.
	dropPushSubCategory bool
	dropPullSubCategory bool
	dropPushProduct     bool
	dropPullProduct     bool
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		categories:    make(map[primitive.ObjectID]*store.Category),
		subCategories: make(map[primitive.ObjectID]*store.SubCategory),
		brands:        make(map[primitive.ObjectID]*store.Brand),
		products:      make(map[primitive.ObjectID]*store.Product),
		reviews:       make(map[primitive.ObjectID]*store.Review),
		calls:         make(map[string]int),
	}
}

func (d *fakeDB) bump(name string) {
	d.mu.Lock()
	d.calls[name]++
	d.mu.Unlock()
}

func (d *fakeDB) storage() store.Storage {
	return store.Storage{
		Categories:    &fakeCategories{d},
		SubCategories: &fakeSubCategories{d},
		Brands:        &fakeBrands{d},
		Products:      &fakeProducts{d},
		Reviews:       &fakeReviews{d},
		Tx:            &fakeTx{},
	}
}

type fakeTx struct{}

func (t *fakeTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeCategories struct{ d *fakeDB }

func (f *fakeCategories) GetByID(_ context.Context, id primitive.ObjectID) (*store.Category, error) {
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	c, ok := f.d.categories[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCategories) FindOne(context.Context, bson.M) (*store.Category, error) {
	return nil, store.ErrNotFound
}

func (f *fakeCategories) List(context.Context, *store.ListQuery) ([]store.Category, int64, error) {
	return nil, 0, nil
}

func (f *fakeCategories) Insert(_ context.Context, c *store.Category) error {
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	cp := *c
	f.d.categories[c.ID] = &cp
	return nil
}

func (f *fakeCategories) Update(_ context.Context, id primitive.ObjectID, fields bson.M) error {
	f.d.bump("categories.Update")
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	c, ok := f.d.categories[id]
	if !ok {
		return store.ErrNotFound
	}
	if name, ok := fields["name"].(string); ok {
		c.Name = name
	}
	if slugVal, ok := fields["slug"].(string); ok {
		c.Slug = slugVal
	}
	if img, ok := fields["image"].(store.Image); ok {
		c.Image = img
	}
	return nil
}

func (f *fakeCategories) Delete(_ context.Context, id primitive.ObjectID) (int64, error) {
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	if _, ok := f.d.categories[id]; !ok {
		return 0, nil
	}
	delete(f.d.categories, id)
	return 1, nil
}

func (f *fakeCategories) PushSubCategory(_ context.Context, categoryID, subCategoryID primitive.ObjectID) error {
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	if f.d.dropPushSubCategory {
		return nil
	}
	if c, ok := f.d.categories[categoryID]; ok {
		c.SubCategories = append(c.SubCategories, subCategoryID)
	}
	return nil
}

func (f *fakeCategories) PullSubCategory(_ context.Context, categoryID, subCategoryID primitive.ObjectID) error {
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	if f.d.dropPullSubCategory {
		return nil
	}
	if c, ok := f.d.categories[categoryID]; ok {
		kept := c.SubCategories[:0]
		for _, id := range c.SubCategories {
			if id != subCategoryID {
				kept = append(kept, id)
			}
		}
		c.SubCategories = kept
	}
	return nil
}

type fakeSubCategories struct{ d *fakeDB }

func (f *fakeSubCategories) GetByID(_ context.Context, id primitive.ObjectID) (*store.SubCategory, error) {
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	sc, ok := f.d.subCategories[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *sc
	return &cp, nil
}

func (f *fakeSubCategories) FindOne(context.Context, bson.M) (*store.SubCategory, error) {
	return nil, store.ErrNotFound
}

func (f *fakeSubCategories) List(context.Context, *store.ListQuery) ([]store.SubCategory, int64, error) {
	return nil, 0, nil
}

func (f *fakeSubCategories) Insert(_ context.Context, sc *store.SubCategory) error {
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	if sc.ID.IsZero() {
		sc.ID = primitive.NewObjectID()
	}
	cp := *sc
	f.d.subCategories[sc.ID] = &cp
	return nil
}

func (f *fakeSubCategories) Update(_ context.Context, id primitive.ObjectID, fields bson.M) error {
	f.d.bump("subCategories.Update")
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	if _, ok := f.d.subCategories[id]; !ok {
		return store.ErrNotFound
	}
	return nil
}

func (f *fakeSubCategories) Delete(_ context.Context, id primitive.ObjectID) (int64, error) {
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	if _, ok := f.d.subCategories[id]; !ok {
		return 0, nil
	}
	delete(f.d.subCategories, id)
	return 1, nil
}

func (f *fakeSubCategories) DeleteByCategory(_ context.Context, categoryID primitive.ObjectID) (int64, error) {
	f.d.bump("subCategories.DeleteByCategory")
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	var n int64
	for id, sc := range f.d.subCategories {
		if sc.CategoryID == categoryID {
			delete(f.d.subCategories, id)
			n++
		}
	}
	return n, nil
}

type fakeBrands struct{ d *fakeDB }

func (f *fakeBrands) GetByID(_ context.Context, id primitive.ObjectID) (*store.Brand, error) {
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	b, ok := f.d.brands[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBrands) FindOne(context.Context, bson.M) (*store.Brand, error) {
	return nil, store.ErrNotFound
}

func (f *fakeBrands) List(context.Context, *store.ListQuery) ([]store.Brand, int64, error) {
	return nil, 0, nil
}

func (f *fakeBrands) Insert(_ context.Context, b *store.Brand) error {
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	if b.ID.IsZero() {
		b.ID = primitive.NewObjectID()
	}
	cp := *b
	f.d.brands[b.ID] = &cp
	return nil
}

func (f *fakeBrands) Update(_ context.Context, id primitive.ObjectID, fields bson.M) error {
	f.d.bump("brands.Update")
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	if _, ok := f.d.brands[id]; !ok {
		return store.ErrNotFound
	}
	return nil
}

func (f *fakeBrands) Delete(_ context.Context, id primitive.ObjectID) (int64, error) {
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	if _, ok := f.d.brands[id]; !ok {
		return 0, nil
	}
	delete(f.d.brands, id)
	return 1, nil
}

func (f *fakeBrands) DeleteByCategory(_ context.Context, categoryID primitive.ObjectID) (int64, error) {
	f.d.bump("brands.DeleteByCategory")
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	var n int64
	for id, b := range f.d.brands {
		if b.CategoryID == categoryID {
			delete(f.d.brands, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeBrands) DeleteBySubCategory(_ context.Context, subCategoryID primitive.ObjectID) (int64, error) {
	f.d.bump("brands.DeleteBySubCategory")
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	var n int64
	for id, b := range f.d.brands {
		if b.SubCategoryID == subCategoryID {
			delete(f.d.brands, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeBrands) PushProduct(_ context.Context, brandID, productID primitive.ObjectID) error {
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	if f.d.dropPushProduct {
		return nil
	}
	if b, ok := f.d.brands[brandID]; ok {
		b.Products = append(b.Products, productID)
	}
	return nil
}

func (f *fakeBrands) PullProduct(_ context.Context, brandID, productID primitive.ObjectID) error {
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	if f.d.dropPullProduct {
		return nil
	}
	if b, ok := f.d.brands[brandID]; ok {
		kept := b.Products[:0]
		for _, id := range b.Products {
			if id != productID {
				kept = append(kept, id)
			}
		}
		b.Products = kept
	}
	return nil
}

type fakeProducts struct{ d *fakeDB }

func productMatches(p *store.Product, filter bson.M) bool {
	if v, ok := filter["category_id"].(primitive.ObjectID); ok && p.CategoryID != v {
		return false
	}
	if v, ok := filter["sub_category_id"].(primitive.ObjectID); ok && p.SubCategoryID != v {
		return false
	}
	if v, ok := filter["brand_id"].(primitive.ObjectID); ok && p.BrandID != v {
		return false
	}
	return true
}

func (f *fakeProducts) GetByID(_ context.Context, id primitive.ObjectID) (*store.Product, error) {
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	p, ok := f.d.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProducts) List(context.Context, *store.ListQuery) ([]store.Product, int64, error) {
	return nil, 0, nil
}

func (f *fakeProducts) Insert(_ context.Context, p *store.Product) error {
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	cp := *p
	f.d.products[p.ID] = &cp
	return nil
}

func (f *fakeProducts) Update(_ context.Context, id primitive.ObjectID, fields bson.M) error {
	f.d.bump("products.Update")
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	p, ok := f.d.products[id]
	if !ok {
		return store.ErrNotFound
	}
	if price, ok := fields["price"].(float64); ok {
		p.Price = price
	}
	if applied, ok := fields["applied_price"].(float64); ok {
		p.AppliedPrice = applied
	}
	if rating, ok := fields["rating"].(float64); ok {
		p.Rating = rating
	}
	if imgs, ok := fields["images"].(store.ProductImages); ok {
		p.Images = imgs
	}
	return nil
}

func (f *fakeProducts) Delete(_ context.Context, id primitive.ObjectID) (int64, error) {
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	if _, ok := f.d.products[id]; !ok {
		return 0, nil
	}
	delete(f.d.products, id)
	return 1, nil
}

func (f *fakeProducts) IDsBy(_ context.Context, filter bson.M) ([]primitive.ObjectID, error) {
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	var ids []primitive.ObjectID
	for id, p := range f.d.products {
		if productMatches(p, filter) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *fakeProducts) DeleteBy(_ context.Context, filter bson.M) (int64, error) {
	f.d.bump("products.DeleteBy")
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	var n int64
	for id, p := range f.d.products {
		if productMatches(p, filter) {
			delete(f.d.products, id)
			n++
		}
	}
	return n, nil
}

type fakeReviews struct{ d *fakeDB }

func (f *fakeReviews) GetByID(_ context.Context, id primitive.ObjectID) (*store.Review, error) {
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	rv, ok := f.d.reviews[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *rv
	return &cp, nil
}

func (f *fakeReviews) FindOne(_ context.Context, filter bson.M) (*store.Review, error) {
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	productID, _ := filter["product_id"].(primitive.ObjectID)
	createdBy, _ := filter["created_by"].(primitive.ObjectID)
	for _, rv := range f.d.reviews {
		if rv.ProductID == productID && rv.CreatedBy == createdBy {
			cp := *rv
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeReviews) ListByProduct(_ context.Context, productID primitive.ObjectID, status string) ([]store.Review, error) {
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	var out []store.Review
	for _, rv := range f.d.reviews {
		if rv.ProductID == productID && (status == "" || rv.Status == status) {
			out = append(out, *rv)
		}
	}
	return out, nil
}

func (f *fakeReviews) Insert(_ context.Context, rv *store.Review) error {
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	if rv.ID.IsZero() {
		rv.ID = primitive.NewObjectID()
	}
	cp := *rv
	f.d.reviews[rv.ID] = &cp
	return nil
}

func (f *fakeReviews) Update(_ context.Context, id primitive.ObjectID, fields bson.M) error {
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	rv, ok := f.d.reviews[id]
	if !ok {
		return store.ErrNotFound
	}
	if status, ok := fields["status"].(string); ok {
		rv.Status = status
	}
	return nil
}

func (f *fakeReviews) Delete(_ context.Context, id primitive.ObjectID) (int64, error) {
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	if _, ok := f.d.reviews[id]; !ok {
		return 0, nil
	}
	delete(f.d.reviews, id)
	return 1, nil
}

func (f *fakeReviews) DeleteByProducts(_ context.Context, productIDs []primitive.ObjectID) (int64, error) {
	f.d.bump("reviews.DeleteByProducts")
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	var n int64
	for id, rv := range f.d.reviews {
		for _, pid := range productIDs {
			if rv.ProductID == pid {
				delete(f.d.reviews, id)
				n++
				break
			}
		}
	}
	return n, nil
}

// fakeMedia records uploads and purges; it never talks to anything remote.
type fakeMedia struct {
	mu         sync.Mutex
	uploads    []string // folders uploaded into
	purged     []string
	replaceErr error
	counter    int
}

func (m *fakeMedia) Upload(_ context.Context, files []media.File, folder string, tags []string) ([]media.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads = append(m.uploads, folder)
	assets := make([]media.Asset, 0, len(files))
	for range files {
		m.counter++
		assets = append(assets, media.Asset{
			URL:      "https://cdn.test/" + folder,
			PublicID: folder + "/asset_" + string(rune('a'+m.counter%26)),
		})
	}
	return assets, nil
}

func (m *fakeMedia) Replace(ctx context.Context, oldIDs []string, files []media.File, folder string, tags []string) ([]media.Asset, error) {
	if m.replaceErr != nil {
		return nil, m.replaceErr
	}
	return m.Upload(ctx, files, folder, tags)
}

func (m *fakeMedia) PurgePath(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purged = append(m.purged, prefix)
	return nil
}

func newTestEngine(t *testing.T, db *fakeDB, md *fakeMedia) *Engine {
	t.Helper()
	ids, err := NewCustomIDGenerator("test-salt")
	require.NoError(t, err)
	return NewEngine(db.storage(), md, NewPathResolver("uploads"), ids, zap.NewNop().Sugar())
}

func seedCategory(db *fakeDB, customID string) *store.Category {
	c := &store.Category{
		ID:            primitive.NewObjectID(),
		Name:          "Electronics",
		Slug:          "electronics",
		CustomID:      customID,
		SubCategories: []primitive.ObjectID{},
	}
	db.categories[c.ID] = c
	return c
}

func seedSubCategory(db *fakeDB, parent *store.Category, customID string) *store.SubCategory {
	sc := &store.SubCategory{
		ID:         primitive.NewObjectID(),
		Name:       "Phones",
		Slug:       "phones",
		CustomID:   customID,
		CategoryID: parent.ID,
	}
	db.subCategories[sc.ID] = sc
	parent.SubCategories = append(parent.SubCategories, sc.ID)
	return sc
}

func seedBrand(db *fakeDB, cat *store.Category, sub *store.SubCategory, customID string) *store.Brand {
	b := &store.Brand{
		ID:            primitive.NewObjectID(),
		Name:          "Acme",
		Slug:          "acme",
		CustomID:      customID,
		CategoryID:    cat.ID,
		SubCategoryID: sub.ID,
		Products:      []primitive.ObjectID{},
	}
	db.brands[b.ID] = b
	return b
}

func seedProduct(db *fakeDB, cat *store.Category, sub *store.SubCategory, brand *store.Brand, imagesCID string) *store.Product {
	p := &store.Product{
		ID:            primitive.NewObjectID(),
		Title:         "Widget",
		Slug:          "widget",
		Price:         200,
		AppliedPrice:  200,
		Images:        store.ProductImages{CustomID: imagesCID, URLs: []store.Image{{URL: "u", PublicID: "old_img"}}},
		CategoryID:    cat.ID,
		SubCategoryID: sub.ID,
		BrandID:       brand.ID,
	}
	db.products[p.ID] = p
	brand.Products = append(brand.Products, p.ID)
	return p
}

func seedReview(db *fakeDB, product *store.Product, status string, rating int) *store.Review {
	rv := &store.Review{
		ID:        primitive.NewObjectID(),
		ProductID: product.ID,
		Rating:    rating,
		Status:    status,
		CreatedBy: primitive.NewObjectID(),
	}
	db.reviews[rv.ID] = rv
	return rv
}

func TestCreateSubCategorySyncsParentArray(t *testing.T) {
	db := newFakeDB()
	md := &fakeMedia{}
	engine := newTestEngine(t, db, md)
	parent := seedCategory(db, "cat1")

	sub, err := engine.CreateSubCategory(context.Background(), CreateSubCategoryInput{
		CategoryID: parent.ID,
		Name:       "Phones",
		Image:      media.File{Name: "phones.jpg", Body: strings.NewReader("x")},
		Actor:      primitive.NewObjectID(),
	})
	require.NoError(t, err)
	assert.Equal(t, "phones", sub.Slug)
	assert.NotEmpty(t, sub.CustomID)

	stored := db.categories[parent.ID]
	assert.Contains(t, stored.SubCategories, sub.ID)

	require.Len(t, md.uploads, 1)
	assert.True(t, strings.HasPrefix(md.uploads[0], "uploads/Categories/cat1/Sub-Categories/"))
}

func TestCreateSubCategoryParentMissing(t *testing.T) {
	db := newFakeDB()
	md := &fakeMedia{}
	engine := newTestEngine(t, db, md)

	_, err := engine.CreateSubCategory(context.Background(), CreateSubCategoryInput{
		CategoryID: primitive.NewObjectID(),
		Name:       "Phones",
		Image:      media.File{Name: "phones.jpg", Body: strings.NewReader("x")},
	})
	require.ErrorIs(t, err, ErrParentNotFound)
	assert.Empty(t, md.uploads)
}

func TestCreateProductSyncsBrandArrayAndPricing(t *testing.T) {
	db := newFakeDB()
	md := &fakeMedia{}
	engine := newTestEngine(t, db, md)
	cat := seedCategory(db, "cat1")
	sub := seedSubCategory(db, cat, "sub1")
	brand := seedBrand(db, cat, sub, "brd1")

	product, err := engine.CreateProduct(context.Background(), CreateProductInput{
		BrandID:  brand.ID,
		Title:    "Super Phone",
		Price:    200,
		Discount: store.Discount{Amount: 25, Type: store.DiscountPercentage},
		Images: []media.File{
			{Name: "front.jpg", Body: strings.NewReader("x")},
			{Name: "back.jpg", Body: strings.NewReader("y")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "super-phone", product.Slug)
	assert.InDelta(t, 150, product.AppliedPrice, 0.0001)
	assert.Len(t, product.Images.URLs, 2)

	assert.Contains(t, db.brands[brand.ID].Products, product.ID)

	require.Len(t, md.uploads, 1)
	assert.True(t, strings.HasPrefix(md.uploads[0], "uploads/Categories/cat1/Sub-Categories/sub1/Brands/brd1/Products/"))
}

func TestCreateProductLostPushSurfacesAndDiscardsUploads(t *testing.T) {
	db := newFakeDB()
	db.dropPushProduct = true
	md := &fakeMedia{}
	engine := newTestEngine(t, db, md)
	cat := seedCategory(db, "cat1")
	sub := seedSubCategory(db, cat, "sub1")
	brand := seedBrand(db, cat, sub, "brd1")

	_, err := engine.CreateProduct(context.Background(), CreateProductInput{
		BrandID: brand.ID,
		Title:   "Super Phone",
		Price:   100,
		Images:  []media.File{{Name: "front.jpg", Body: strings.NewReader("x")}},
	})
	require.ErrorIs(t, err, ErrReferenceSync)

	// The uploads made for the aborted create were cleaned up.
	require.Len(t, md.purged, 1)
	assert.Equal(t, md.uploads[0], md.purged[0])
}

func TestDeleteCategoryCascades(t *testing.T) {
	db := newFakeDB()
	md := &fakeMedia{}
	engine := newTestEngine(t, db, md)

	cat := seedCategory(db, "cat1")
	subA := seedSubCategory(db, cat, "subA")
	subB := seedSubCategory(db, cat, "subB")
	brandA := seedBrand(db, cat, subA, "brdA")
	brandB := seedBrand(db, cat, subB, "brdB")
	prodA := seedProduct(db, cat, subA, brandA, "imgA")
	prodB := seedProduct(db, cat, subB, brandB, "imgB")
	seedReview(db, prodA, store.ReviewApproved, 5)
	seedReview(db, prodB, store.ReviewPending, 3)

	// An unrelated tree that must survive.
	other := seedCategory(db, "other")
	otherSub := seedSubCategory(db, other, "otherSub")
	otherBrand := seedBrand(db, other, otherSub, "otherBrd")
	otherProd := seedProduct(db, other, otherSub, otherBrand, "otherImg")
	otherReview := seedReview(db, otherProd, store.ReviewApproved, 4)

	deleted, err := engine.DeleteCategory(context.Background(), cat.ID)
	require.NoError(t, err)
	assert.Equal(t, cat.ID, deleted.ID)

	assert.NotContains(t, db.categories, cat.ID)
	assert.Empty(t, db.subCategories[subA.ID])
	assert.Empty(t, db.subCategories[subB.ID])
	assert.NotContains(t, db.brands, brandA.ID)
	assert.NotContains(t, db.brands, brandB.ID)
	assert.NotContains(t, db.products, prodA.ID)
	assert.NotContains(t, db.products, prodB.ID)
	assert.Len(t, db.reviews, 1)

	// The unrelated tree is intact.
	assert.Contains(t, db.categories, other.ID)
	assert.Contains(t, db.subCategories, otherSub.ID)
	assert.Contains(t, db.brands, otherBrand.ID)
	assert.Contains(t, db.products, otherProd.ID)
	assert.Contains(t, db.reviews, otherReview.ID)

	// One purge of the category folder covers the whole nested media tree.
	assert.Equal(t, []string{"uploads/Categories/cat1"}, md.purged)
}

func TestDeleteCategoryWithoutChildrenShortCircuits(t *testing.T) {
	db := newFakeDB()
	md := &fakeMedia{}
	engine := newTestEngine(t, db, md)
	cat := seedCategory(db, "cat1")

	_, err := engine.DeleteCategory(context.Background(), cat.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, db.calls["subCategories.DeleteByCategory"])
	assert.Zero(t, db.calls["brands.DeleteByCategory"])
	assert.Zero(t, db.calls["products.DeleteBy"])
	assert.Zero(t, db.calls["reviews.DeleteByProducts"])
}

func TestDeleteCategoryTwice(t *testing.T) {
	db := newFakeDB()
	md := &fakeMedia{}
	engine := newTestEngine(t, db, md)
	cat := seedCategory(db, "cat1")

	_, err := engine.DeleteCategory(context.Background(), cat.ID)
	require.NoError(t, err)

	_, err = engine.DeleteCategory(context.Background(), cat.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	// The loser never purges.
	assert.Len(t, md.purged, 1)
}

func TestDeleteSubCategoryPullsParentReference(t *testing.T) {
	db := newFakeDB()
	md := &fakeMedia{}
	engine := newTestEngine(t, db, md)
	cat := seedCategory(db, "cat1")
	sub := seedSubCategory(db, cat, "sub1")

	deleted, err := engine.DeleteSubCategory(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.Equal(t, sub.ID, deleted.ID)

	assert.NotContains(t, db.categories[cat.ID].SubCategories, sub.ID)
	assert.Equal(t, []string{"uploads/Categories/cat1/Sub-Categories/sub1"}, md.purged)
}

func TestDeleteSubCategoryLostPullSurfaces(t *testing.T) {
	db := newFakeDB()
	db.dropPullSubCategory = true
	md := &fakeMedia{}
	engine := newTestEngine(t, db, md)
	cat := seedCategory(db, "cat1")
	sub := seedSubCategory(db, cat, "sub1")

	_, err := engine.DeleteSubCategory(context.Background(), sub.ID)
	require.ErrorIs(t, err, ErrReferenceSync)

	// No media purge after a failed record phase.
	assert.Empty(t, md.purged)
}

func TestDeleteProductPullsBrandReference(t *testing.T) {
	db := newFakeDB()
	md := &fakeMedia{}
	engine := newTestEngine(t, db, md)
	cat := seedCategory(db, "cat1")
	sub := seedSubCategory(db, cat, "sub1")
	brand := seedBrand(db, cat, sub, "brd1")
	product := seedProduct(db, cat, sub, brand, "img1")
	seedReview(db, product, store.ReviewApproved, 5)

	_, err := engine.DeleteProduct(context.Background(), product.ID)
	require.NoError(t, err)

	assert.NotContains(t, db.brands[brand.ID].Products, product.ID)
	assert.Empty(t, db.reviews)
	assert.Equal(t, []string{"uploads/Categories/cat1/Sub-Categories/sub1/Brands/brd1/Products/img1"}, md.purged)
}

func TestConcurrentProductDeletes(t *testing.T) {
	db := newFakeDB()
	md := &fakeMedia{}
	engine := newTestEngine(t, db, md)
	cat := seedCategory(db, "cat1")
	sub := seedSubCategory(db, cat, "sub1")
	brand := seedBrand(db, cat, sub, "brd1")
	product := seedProduct(db, cat, sub, brand, "img1")
	seedReview(db, product, store.ReviewApproved, 5)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = engine.DeleteProduct(context.Background(), product.ID)
		}(i)
	}
	wg.Wait()

	var wins, notFound int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, store.ErrNotFound):
			notFound++
		default:
			t.Fatalf("unexpected delete error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, notFound)

	assert.NotContains(t, db.products, product.ID)
	assert.Empty(t, db.reviews)

	// Only the winner purges; the loser stops at the zero delete count.
	assert.Equal(t, []string{"uploads/Categories/cat1/Sub-Categories/sub1/Brands/brd1/Products/img1"}, md.purged)
}

func TestUpdateProductRecomputesAppliedPrice(t *testing.T) {
	db := newFakeDB()
	md := &fakeMedia{}
	engine := newTestEngine(t, db, md)
	cat := seedCategory(db, "cat1")
	sub := seedSubCategory(db, cat, "sub1")
	brand := seedBrand(db, cat, sub, "brd1")
	product := seedProduct(db, cat, sub, brand, "img1")

	amount := 50.0
	kind := store.DiscountFixed
	updated, err := engine.UpdateProduct(context.Background(), product.ID, UpdateProductInput{
		DiscountAmount: &amount,
		DiscountType:   &kind,
	})
	require.NoError(t, err)
	assert.InDelta(t, 150, updated.AppliedPrice, 0.0001)
}

func TestUpdateProductStaleImageLeavesRecordUntouched(t *testing.T) {
	db := newFakeDB()
	md := &fakeMedia{replaceErr: media.ErrStaleReference}
	engine := newTestEngine(t, db, md)
	cat := seedCategory(db, "cat1")
	sub := seedSubCategory(db, cat, "sub1")
	brand := seedBrand(db, cat, sub, "brd1")
	product := seedProduct(db, cat, sub, brand, "img1")

	title := "New Title"
	_, err := engine.UpdateProduct(context.Background(), product.ID, UpdateProductInput{
		Title:        &title,
		NewImages:    []media.File{{Name: "new.jpg", Body: strings.NewReader("x")}},
		OldPublicIDs: []string{"ghost"},
	})
	require.ErrorIs(t, err, media.ErrStaleReference)

	// No write reached the store.
	assert.Zero(t, db.calls["products.Update"])
	assert.Equal(t, "Widget", db.products[product.ID].Title)
}

func TestUpdateProductReplaceSwapsWholeGallery(t *testing.T) {
	db := newFakeDB()
	md := &fakeMedia{}
	engine := newTestEngine(t, db, md)
	cat := seedCategory(db, "cat1")
	sub := seedSubCategory(db, cat, "sub1")
	brand := seedBrand(db, cat, sub, "brd1")
	product := seedProduct(db, cat, sub, brand, "img1")
	db.products[product.ID].Images.URLs = append(db.products[product.ID].Images.URLs,
		store.Image{URL: "u2", PublicID: "second_img"})

	updated, err := engine.UpdateProduct(context.Background(), product.ID, UpdateProductInput{
		NewImages:    []media.File{{Name: "new.jpg", Body: strings.NewReader("x")}},
		OldPublicIDs: []string{"old_img"},
	})
	require.NoError(t, err)

	// The new assets are the entire gallery: second_img was not listed for
	// replacement and is dropped from the record anyway.
	require.Len(t, updated.Images.URLs, 1)
	for _, img := range updated.Images.URLs {
		assert.NotEqual(t, "second_img", img.PublicID)
		assert.NotEqual(t, "old_img", img.PublicID)
	}
	assert.Equal(t, "img1", updated.Images.CustomID)
}

func TestCreateReviewOnePerActor(t *testing.T) {
	db := newFakeDB()
	md := &fakeMedia{}
	engine := newTestEngine(t, db, md)
	cat := seedCategory(db, "cat1")
	sub := seedSubCategory(db, cat, "sub1")
	brand := seedBrand(db, cat, sub, "brd1")
	product := seedProduct(db, cat, sub, brand, "img1")
	actor := primitive.NewObjectID()

	review, err := engine.CreateReview(context.Background(), CreateReviewInput{
		ProductID: product.ID,
		Rating:    4,
		Body:      "solid",
		Actor:     actor,
	})
	require.NoError(t, err)
	assert.Equal(t, store.ReviewPending, review.Status)

	_, err = engine.CreateReview(context.Background(), CreateReviewInput{
		ProductID: product.ID,
		Rating:    5,
		Actor:     actor,
	})
	require.ErrorIs(t, err, ErrDuplicateReview)
}

func TestCreateReviewProductMissing(t *testing.T) {
	db := newFakeDB()
	engine := newTestEngine(t, db, &fakeMedia{})

	_, err := engine.CreateReview(context.Background(), CreateReviewInput{
		ProductID: primitive.NewObjectID(),
		Rating:    4,
		Actor:     primitive.NewObjectID(),
	})
	require.ErrorIs(t, err, ErrParentNotFound)
}

func TestModerateReviewRefreshesRating(t *testing.T) {
	db := newFakeDB()
	engine := newTestEngine(t, db, &fakeMedia{})
	cat := seedCategory(db, "cat1")
	sub := seedSubCategory(db, cat, "sub1")
	brand := seedBrand(db, cat, sub, "brd1")
	product := seedProduct(db, cat, sub, brand, "img1")
	seedReview(db, product, store.ReviewApproved, 5)
	pending := seedReview(db, product, store.ReviewPending, 3)

	review, err := engine.ModerateReview(context.Background(), pending.ID, store.ReviewApproved)
	require.NoError(t, err)
	assert.Equal(t, store.ReviewApproved, review.Status)

	assert.InDelta(t, 4, db.products[product.ID].Rating, 0.0001)
}

func TestModerateReviewRejectsBadStatus(t *testing.T) {
	db := newFakeDB()
	engine := newTestEngine(t, db, &fakeMedia{})

	_, err := engine.ModerateReview(context.Background(), primitive.NewObjectID(), "pending")
	require.ErrorIs(t, err, ErrInvalidReviewStatus)
}

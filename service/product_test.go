package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"bar-order-api/cache"
	"bar-order-api/internal/testdb"
	"bar-order-api/media"
	"bar-order-api/models"
	"bar-order-api/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type productFixture struct {
	ctx     context.Context
	svc     *ProductService
	orders  *OrderService
	root    string
	mr      *miniredis.Miniredis
	storage *media.Storage
}

func newProductFixture(t *testing.T) *productFixture {
	t.Helper()
	db := testdb.Open(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	root := t.TempDir()
	storage := media.NewStorage(root, "/media/")
	productCache := cache.NewRedisProductCache(client, "test", time.Minute)
	return &productFixture{
		ctx:     context.Background(),
		svc:     NewProductService(store.NewProductRepo(db), productCache, storage, zerolog.Nop()),
		orders:  NewOrderService(store.NewOrderRepo(db), zerolog.Nop()),
		root:    root,
		mr:      mr,
		storage: storage,
	}
}

func beerInput() ProductInput {
	return ProductInput{
		Name:           ptr("Snow"),
		Category:       ptr(models.CategoryBeer),
		AlcoholContent: dec("3.1"),
		Price:          dec("8"),
	}
}

func TestProductCreateDefaultsAndRepresentation(t *testing.T) {
	f := newProductFixture(t)

	product, err := f.svc.Create(f.ctx, beerInput())
	require.NoError(t, err)
	assert.Equal(t, models.ServeCold, product.TemperatureRequirement)

	resp := RepresentProduct(product, f.svc.ImageURL)
	assert.Equal(t, "3.10", resp.AlcoholContent)
	assert.Equal(t, "8.00", resp.Price)
	assert.Nil(t, resp.Image)
}

func TestProductValidation(t *testing.T) {
	cases := []struct {
		name    string
		edit    func(*ProductInput)
		partial bool
		field   string
	}{
		{"missing name", func(in *ProductInput) { in.Name = nil }, false, "name"},
		{"blank name", func(in *ProductInput) { in.Name = ptr("  ") }, true, "name"},
		{"bad category", func(in *ProductInput) { in.Category = ptr(models.ProductCategory("CIDER")) }, false, "category"},
		{"missing price", func(in *ProductInput) { in.Price = nil }, false, "price"},
		{"alcohol too big", func(in *ProductInput) { in.AlcoholContent = dec("1000") }, true, "alcohol_content"},
		{"price 3 places", func(in *ProductInput) { in.Price = dec("1.234") }, true, "price"},
		{"bad temperature", func(in *ProductInput) { in.TemperatureRequirement = ptr(models.TemperatureRequirement("WARM")) }, false, "temperature_requirement"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := beerInput()
			tc.edit(&in)
			assert.Equal(t, tc.field, fieldOf(t, ValidateProduct(in, tc.partial)))
		})
	}

	assert.NoError(t, ValidateProduct(ProductInput{Price: dec("9.90")}, true))
}

func TestProductListIsCachedAndInvalidated(t *testing.T) {
	f := newProductFixture(t)

	_, err := f.svc.Create(f.ctx, beerInput())
	require.NoError(t, err)

	list, err := f.svc.List(f.ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, f.mr.Exists("test:products:all"))

	second := beerInput()
	second.Name = ptr("Yanjing")
	_, err = f.svc.Create(f.ctx, second)
	require.NoError(t, err)
	assert.False(t, f.mr.Exists("test:products:all"), "writes invalidate the cache")

	list, err = f.svc.List(f.ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

// writeDuringFill runs a catalog write after List has read its rows but
// before it stores them
type writeDuringFill struct {
	*cache.RedisProductCache
	write func()
}

func (c *writeDuringFill) SetProducts(ctx context.Context, gen int64, products []models.Product) error {
	if c.write != nil {
		w := c.write
		c.write = nil
		w()
	}
	return c.RedisProductCache.SetProducts(ctx, gen, products)
}

func TestProductListDoesNotCacheRowsOlderThanAWrite(t *testing.T) {
	ctx := context.Background()
	db := testdb.Open(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	racing := &writeDuringFill{RedisProductCache: cache.NewRedisProductCache(client, "test", time.Minute)}
	svc := NewProductService(store.NewProductRepo(db), racing, media.NewStorage(t.TempDir(), "/media/"), zerolog.Nop())

	_, err := svc.Create(ctx, beerInput())
	require.NoError(t, err)
	racing.write = func() {
		second := beerInput()
		second.Name = ptr("Yanjing")
		_, err := svc.Create(ctx, second)
		require.NoError(t, err)
	}

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1, "rows read before the write")
	assert.False(t, mr.Exists("test:products:all"), "stale rows are not cached")

	list, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.True(t, mr.Exists("test:products:all"))
}

func TestProductListSurvivesCacheOutage(t *testing.T) {
	f := newProductFixture(t)
	_, err := f.svc.Create(f.ctx, beerInput())
	require.NoError(t, err)

	f.mr.Close()
	list, err := f.svc.List(f.ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestProductUpdatePartialAndFull(t *testing.T) {
	f := newProductFixture(t)
	product, err := f.svc.Create(f.ctx, beerInput())
	require.NoError(t, err)

	patched, err := f.svc.Update(f.ctx, product.ID, ProductInput{Price: dec("9.50")}, true)
	require.NoError(t, err)
	assert.Equal(t, "9.50", patched.Price.StringFixed(2))
	assert.Equal(t, "Snow", patched.Name)

	_, err = f.svc.Update(f.ctx, product.ID, ProductInput{Price: dec("9.50")}, false)
	assert.Equal(t, "name", fieldOf(t, err))

	warm := beerInput()
	warm.TemperatureRequirement = ptr(models.ServeHot)
	hot, err := f.svc.Update(f.ctx, product.ID, warm, true)
	require.NoError(t, err)
	assert.Equal(t, models.ServeHot, hot.TemperatureRequirement)

	// PATCH without the field keeps it, PUT without it resets to the default
	kept, err := f.svc.Update(f.ctx, product.ID, ProductInput{Price: dec("9.00")}, true)
	require.NoError(t, err)
	assert.Equal(t, models.ServeHot, kept.TemperatureRequirement)

	replaced, err := f.svc.Update(f.ctx, product.ID, beerInput(), false)
	require.NoError(t, err)
	assert.Equal(t, models.ServeCold, replaced.TemperatureRequirement)

	_, err = f.svc.Update(f.ctx, 999, beerInput(), false)
	var nf *NotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestProductDeleteProtectedWhileReferenced(t *testing.T) {
	f := newProductFixture(t)
	product, err := f.svc.Create(f.ctx, beerInput())
	require.NoError(t, err)

	order, err := f.orders.Create(f.ctx, OrderInput{
		OrderMethod:    ptr(models.MethodQR),
		TableNumber:    ptr("C1"),
		NumberOfDiners: ptr(1),
		TotalAmount:    dec("8.00"),
		Details: []DetailInput{
			{Product: ptr(product.ID), Quantity: ptr(1), UnitPrice: dec("8.00"), TemperatureChoice: models.ChoiceCold},
		},
	})
	require.NoError(t, err)

	err = f.svc.Delete(f.ctx, product.ID)
	var protected *ProtectedReferenceError
	require.True(t, errors.As(err, &protected), "got %v", err)

	_, err = f.svc.Get(f.ctx, product.ID)
	assert.NoError(t, err)
	reloaded, err := f.orders.Get(f.ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, reloaded.Details, 1)

	require.NoError(t, f.orders.Delete(f.ctx, order.ID))
	assert.NoError(t, f.svc.Delete(f.ctx, product.ID))
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(1, 1, color.RGBA{G: 180, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestProductAttachImage(t *testing.T) {
	f := newProductFixture(t)
	product, err := f.svc.Create(f.ctx, beerInput())
	require.NoError(t, err)

	first, err := f.svc.AttachImage(f.ctx, product.ID, bytes.NewReader(pngBytes(t)))
	require.NoError(t, err)
	require.NotNil(t, first.Image)
	assert.True(t, strings.HasSuffix(*first.Image, ".png"))
	firstPath := filepath.Join(f.root, filepath.FromSlash(*first.Image))
	assert.FileExists(t, firstPath)

	second, err := f.svc.AttachImage(f.ctx, product.ID, bytes.NewReader(pngBytes(t)))
	require.NoError(t, err)
	assert.NoFileExists(t, firstPath, "replaced image is removed")

	resp := RepresentProduct(second, f.svc.ImageURL)
	require.NotNil(t, resp.Image)
	assert.Equal(t, "/media/"+*second.Image, *resp.Image)

	_, err = f.svc.AttachImage(f.ctx, 404, bytes.NewReader(pngBytes(t)))
	var nf *NotFoundError
	assert.True(t, errors.As(err, &nf))

	entries, err := os.ReadDir(filepath.Join(f.root, "products"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no file is written for an unknown product")
}

func TestProductAttachImageRejectsNonImages(t *testing.T) {
	f := newProductFixture(t)
	product, err := f.svc.Create(f.ctx, beerInput())
	require.NoError(t, err)

	_, err = f.svc.AttachImage(f.ctx, product.ID, strings.NewReader("<html><script>alert(1)</script></html>"))
	assert.Equal(t, "file", fieldOf(t, err))

	reloaded, err := f.svc.Get(f.ctx, product.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.Image)
	assert.NoDirExists(t, filepath.Join(f.root, "products"))
}

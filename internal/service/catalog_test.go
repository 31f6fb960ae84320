package service

import (
	"context"
	"testing"
	"time"

	"shop_system/internal/apperr"
	"shop_system/internal/domain"
	"shop_system/internal/testutil"
	"shop_system/internal/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func newCachedCatalog(t *testing.T) (*CatalogService, *miniredis.Miniredis) {
	t.Helper()
	gdb := testutil.NewDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewCatalogService(gdb, utils.NewCache(rdb, time.Minute)), mr
}

func TestCreateProduct(t *testing.T) {
	ctx := context.Background()
	svc := NewCatalogService(testutil.NewDB(t), nil)

	p, err := svc.Create(ctx, ProductInput{
		Name:        "  Desk  ",
		Description: strPtr("Oak desk"),
		Price:       decimal.RequireFromString("149.90"),
		Stock:       3,
		ImageURL:    strPtr("https://img.example.com/desk.png"),
	})
	require.NoError(t, err)
	assert.NotZero(t, p.ID)
	assert.Equal(t, "Desk", p.Name)
	assert.Equal(t, "149.90", p.Price.StringFixed(2))

	_, err = svc.Create(ctx, ProductInput{Name: "Desk", Price: decimal.NewFromInt(1)})
	require.ErrorIs(t, err, apperr.ErrConflict)
	assert.Equal(t, "Product with this name already exists", err.Error())
}

func TestCreateProductValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewCatalogService(testutil.NewDB(t), nil)

	cases := map[string]ProductInput{
		"name":        {Name: "", Price: decimal.NewFromInt(1)},
		"price":       {Name: "Neg", Price: decimal.NewFromInt(-1)},
		"stock":       {Name: "Stock", Price: decimal.NewFromInt(1), Stock: -1},
		"image_url":   {Name: "Img", Price: decimal.NewFromInt(1), ImageURL: strPtr("ftp://x/y")},
		"description": {Name: "Desc", Price: decimal.NewFromInt(1), Description: strPtr(string(make([]byte, 1001)))},
	}
	for field, in := range cases {
		t.Run(field, func(t *testing.T) {
			_, err := svc.Create(ctx, in)
			require.ErrorIs(t, err, apperr.ErrValidation)
			var ae *apperr.Error
			require.ErrorAs(t, err, &ae)
			assert.Contains(t, ae.Fields, field)
		})
	}

	_, err := svc.Create(ctx, ProductInput{Name: "Fraction", Price: decimal.RequireFromString("1.005")})
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestUpdateProduct(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	svc := NewCatalogService(gdb, nil)
	a := testutil.CreateProduct(t, gdb, "Alpha", "1.00", 1)
	testutil.CreateProduct(t, gdb, "Beta", "2.00", 2)

	stock := 9
	p, err := svc.Update(ctx, a.ID, ProductPatch{Price: decPtr("3.50"), Stock: &stock})
	require.NoError(t, err)
	assert.Equal(t, "Alpha", p.Name)
	assert.Equal(t, "3.50", p.Price.StringFixed(2))
	assert.Equal(t, 9, p.Stock)

	_, err = svc.Update(ctx, a.ID, ProductPatch{Name: strPtr("Beta")})
	require.ErrorIs(t, err, apperr.ErrConflict)
	assert.Equal(t, "Product name already exists", err.Error())

	p, err = svc.Update(ctx, a.ID, ProductPatch{Name: strPtr("Alpha")})
	require.NoError(t, err)
	assert.Equal(t, "Alpha", p.Name)

	_, err = svc.Update(ctx, a.ID+100, ProductPatch{Stock: &stock})
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDeleteProduct(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	svc := NewCatalogService(gdb, nil)
	p := testutil.CreateProduct(t, gdb, "Gone", "1.00", 1)

	require.NoError(t, svc.Delete(ctx, p.ID))
	_, err := svc.Get(ctx, p.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	err = svc.Delete(ctx, p.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSearchProducts(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	svc := NewCatalogService(gdb, nil)
	testutil.CreateProduct(t, gdb, "Red Chair", "40.00", 5)
	testutil.CreateProduct(t, gdb, "Blue Chair", "60.00", 5)
	table := testutil.CreateProduct(t, gdb, "Table", "100.00", 5)
	require.NoError(t, gdb.Model(&domain.Product{}).Where("id = ?", table.ID).
		Update("description", "Goes with any CHAIR").Error)

	page, err := svc.Search(ctx, ProductFilter{Query: "chair"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Pagination.Total)
	require.Len(t, page.Products, 3)
	assert.Equal(t, "Table", page.Products[0].Name)

	page, err = svc.Search(ctx, ProductFilter{Query: "chair", MinPrice: decPtr("40"), MaxPrice: decPtr("60")})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Pagination.Total)

	page, err = svc.Search(ctx, ProductFilter{MinPrice: decPtr("60.00")})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Pagination.Total)

	page, err = svc.List(ctx, PageRequest{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Products, 1)
	assert.Equal(t, Pagination{Page: 2, Limit: 2, Total: 3, TotalPages: 2}, page.Pagination)

	_, err = svc.Search(ctx, ProductFilter{MinPrice: decPtr("10"), MaxPrice: decPtr("5")})
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestLowStock(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	svc := NewCatalogService(gdb, nil)
	testutil.CreateProduct(t, gdb, "Plenty", "1.00", 50)
	testutil.CreateProduct(t, gdb, "Few", "1.00", 3)
	testutil.CreateProduct(t, gdb, "None", "1.00", 0)
	testutil.CreateProduct(t, gdb, "Edge", "1.00", 10)

	products, err := svc.LowStock(ctx, 10)
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, "None", products[0].Name)
	assert.Equal(t, "Few", products[1].Name)
	assert.Equal(t, "Edge", products[2].Name)

	_, err = svc.LowStock(ctx, -1)
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestCatalogCacheInvalidatedOnMutation(t *testing.T) {
	ctx := context.Background()
	svc, mr := newCachedCatalog(t)

	p, err := svc.Create(ctx, ProductInput{Name: "Cached", Price: decimal.RequireFromString("5.00"), Stock: 1})
	require.NoError(t, err)

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cached", got.Name)
	version, err := mr.Get("catalog:version")
	require.NoError(t, err)
	assert.True(t, mr.Exists("catalog:v"+version+":product:1"))

	page, err := svc.List(ctx, PageRequest{})
	require.NoError(t, err)
	assert.Len(t, page.Products, 1)

	_, err = svc.Update(ctx, p.ID, ProductPatch{Name: strPtr("Renamed")})
	require.NoError(t, err)
	assert.False(t, mr.Exists("catalog:v"+version+":product:1"))

	got, err = svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)

	_, err = svc.Create(ctx, ProductInput{Name: "Second", Price: decimal.NewFromInt(1)})
	require.NoError(t, err)
	page, err = svc.List(ctx, PageRequest{})
	require.NoError(t, err)
	assert.Len(t, page.Products, 2)
}

func TestCatalogServesWhenCacheDown(t *testing.T) {
	ctx := context.Background()
	svc, mr := newCachedCatalog(t)
	mr.Close()

	p, err := svc.Create(ctx, ProductInput{Name: "Offline", Price: decimal.NewFromInt(2)})
	require.NoError(t, err)
	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Offline", got.Name)
}

package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/security_backend/internal/models"
	"github.com/Skotchmaster/security_backend/internal/mykafka"
	"github.com/Skotchmaster/security_backend/internal/repo"
	"github.com/Skotchmaster/security_backend/internal/transport"
)

type fakeIndex struct {
	mu      sync.Mutex
	indexed map[uint]models.Product
	deleted []uint
	err     error
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{indexed: map[uint]models.Product{}}
}

func (f *fakeIndex) IndexProduct(_ context.Context, p *models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexed[p.ID] = *p
	return f.err
}

func (f *fakeIndex) DeleteProduct(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.indexed, id)
	f.deleted = append(f.deleted, id)
	return f.err
}

func (f *fakeIndex) Search(_ context.Context, query string, from, size int) (int64, []models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Product
	for _, p := range f.indexed {
		if p.Name == query {
			out = append(out, p)
		}
	}
	return int64(len(out)), out, f.err
}

func ptr[T any](v T) *T { return &v }

func newProducts(t *testing.T, index ProductIndex) (*ProductService, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	return NewProductService(repo.New(initTestDB(t)), pub, index), pub
}

func TestProductService_CreateGetPatchDelete(t *testing.T) {
	index := newFakeIndex()
	svc, pub := newProducts(t, index)
	ctx := context.Background()

	created, err := svc.Create(ctx, transport.CreateProductRequest{Name: "  Laptop ", Description: "14 inch", Price: 999.5, Stock: 3})
	require.NoError(t, err)
	assert.Equal(t, "Laptop", created.Name)
	assert.Contains(t, index.indexed, created.ID)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "14 inch", got.Description)

	byName, err := svc.GetByName(ctx, "Laptop")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)

	patched, err := svc.Patch(ctx, created.ID, transport.PatchProductRequest{Price: ptr(899.0)})
	require.NoError(t, err)
	assert.Equal(t, 899.0, patched.Price)
	assert.Equal(t, "Laptop", patched.Name)
	assert.Equal(t, 3, patched.Stock)
	assert.Equal(t, 899.0, index.indexed[created.ID].Price)

	require.NoError(t, svc.Delete(ctx, created.ID))
	assert.Equal(t, []uint{created.ID}, index.deleted)

	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, []string{"product_created", "product_updated", "product_deleted"}, pub.types())
	for _, e := range pub.events {
		assert.Equal(t, mykafka.TopicProductEvents, e.Topic)
	}
}

func TestProductService_Validation(t *testing.T) {
	svc, pub := newProducts(t, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, transport.CreateProductRequest{Name: "   "})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, transport.CreateProductRequest{Name: "x", Price: -1})
	assert.ErrorIs(t, err, ErrValidation)

	created, err := svc.Create(ctx, transport.CreateProductRequest{Name: "Mouse"})
	require.NoError(t, err)

	_, err = svc.Patch(ctx, created.ID, transport.PatchProductRequest{Name: ptr("")})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Patch(ctx, created.ID, transport.PatchProductRequest{Stock: ptr(-5)})
	assert.ErrorIs(t, err, ErrValidation)

	assert.Equal(t, []string{"product_created"}, pub.types())
}

func TestProductService_NotFound(t *testing.T) {
	svc, _ := newProducts(t, nil)
	ctx := context.Background()

	_, err := svc.Get(ctx, 404)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.GetByName(ctx, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Patch(ctx, 404, transport.PatchProductRequest{Name: ptr("x")})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, 404), ErrNotFound)
}

func TestProductService_List(t *testing.T) {
	svc, _ := newProducts(t, nil)
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		_, err := svc.Create(ctx, transport.CreateProductRequest{Name: name})
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "c", page.Data[0].Name)
	assert.EqualValues(t, 3, page.Meta.Total)
	assert.EqualValues(t, 2, page.Meta.TotalPages)
	assert.True(t, page.Meta.HasPrev)
	assert.False(t, page.Meta.HasNext)
}

func TestProductService_Search(t *testing.T) {
	disabled, _ := newProducts(t, nil)
	assert.False(t, disabled.SearchEnabled())
	_, err := disabled.Search(context.Background(), "x", 1, 10)
	assert.ErrorIs(t, err, ErrSearchDisabled)

	index := newFakeIndex()
	svc, _ := newProducts(t, index)
	ctx := context.Background()
	_, err = svc.Create(ctx, transport.CreateProductRequest{Name: "Keyboard"})
	require.NoError(t, err)

	_, err = svc.Search(ctx, "  ", 1, 10)
	assert.ErrorIs(t, err, ErrValidation)

	page, err := svc.Search(ctx, "Keyboard", 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.EqualValues(t, 1, page.Meta.Total)
}

func TestProductService_IndexFailureKeepsWrite(t *testing.T) {
	index := newFakeIndex()
	index.err = errors.New("es down")
	svc, _ := newProducts(t, index)
	ctx := context.Background()

	created, err := svc.Create(ctx, transport.CreateProductRequest{Name: "Monitor"})
	require.NoError(t, err)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Monitor", got.Name)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Skotchmaster/security_backend/internal/logging"
	"github.com/Skotchmaster/security_backend/internal/models"
	"github.com/Skotchmaster/security_backend/internal/mykafka"
	"github.com/Skotchmaster/security_backend/internal/repo"
	"github.com/Skotchmaster/security_backend/internal/transport"
	"github.com/Skotchmaster/security_backend/internal/util"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrSearchDisabled = errors.New("search is not configured")
)

type ProductStore interface {
	GetProduct(ctx context.Context, id uint) (*models.Product, error)
	GetProductByName(ctx context.Context, name string) (*models.Product, error)
	GetProducts(ctx context.Context, offset, limit int) (int64, []models.Product, error)
	CreateProduct(ctx context.Context, prod *models.Product) (*models.Product, error)
	PatchProduct(ctx context.Context, id uint, req transport.PatchProductRequest) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uint) error
}

// ProductIndex mirrors product writes into the search backend.
type ProductIndex interface {
	IndexProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id uint) error
	Search(ctx context.Context, query string, from, size int) (int64, []models.Product, error)
}

type ProductPage struct {
	Data []models.Product `json:"data"`
	Meta util.Meta        `json:"meta"`
}

type ProductService struct {
	store  ProductStore
	events EventPublisher
	index  ProductIndex
}

// NewProductService wires the store. index may be nil when search is off.
func NewProductService(store ProductStore, events EventPublisher, index ProductIndex) *ProductService {
	if events == nil {
		events = &mykafka.Producer{}
	}
	return &ProductService{store: store, events: events, index: index}
}

func mapProductErr(err error) error {
	if errors.Is(err, repo.ErrProductNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *ProductService) List(ctx context.Context, page, size int) (*ProductPage, error) {
	offset, limit := util.Calculate(page, size)
	total, items, err := s.store.GetProducts(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	return &ProductPage{Data: items, Meta: util.NewMeta(page, offset, limit, total)}, nil
}

func (s *ProductService) Get(ctx context.Context, id uint) (*models.Product, error) {
	p, err := s.store.GetProduct(ctx, id)
	return p, mapProductErr(err)
}

func (s *ProductService) GetByName(ctx context.Context, name string) (*models.Product, error) {
	p, err := s.store.GetProductByName(ctx, name)
	return p, mapProductErr(err)
}

func validatePrice(price float64, stock int) error {
	if price < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	if stock < 0 {
		return fmt.Errorf("%w: stock must not be negative", ErrValidation)
	}
	return nil
}

func (s *ProductService) Create(ctx context.Context, req transport.CreateProductRequest) (*models.Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if err := validatePrice(req.Price, req.Stock); err != nil {
		return nil, err
	}

	prod, err := s.store.CreateProduct(ctx, &models.Product{
		Name:        name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
	})
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, "product_created", prod)
	return prod, nil
}

func (s *ProductService) Patch(ctx context.Context, id uint, req transport.PatchProductRequest) (*models.Product, error) {
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		if trimmed == "" {
			return nil, fmt.Errorf("%w: name must not be empty", ErrValidation)
		}
		req.Name = &trimmed
	}
	if req.Price != nil && *req.Price < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	if req.Stock != nil && *req.Stock < 0 {
		return nil, fmt.Errorf("%w: stock must not be negative", ErrValidation)
	}

	prod, err := s.store.PatchProduct(ctx, id, req)
	if err != nil {
		return nil, mapProductErr(err)
	}

	s.afterWrite(ctx, "product_updated", prod)
	return prod, nil
}

func (s *ProductService) Delete(ctx context.Context, id uint) error {
	if err := s.store.DeleteProduct(ctx, id); err != nil {
		return mapProductErr(err)
	}

	l := logging.FromContext(ctx)
	s.publish(ctx, id, mykafka.NewEvent("product_deleted", map[string]any{"product_id": id}))
	if s.index != nil {
		if err := s.index.DeleteProduct(ctx, id); err != nil {
			l.Error("es_delete", "status", "fail", "product_id", id, "error", err)
		}
	}
	return nil
}

func (s *ProductService) SearchEnabled() bool {
	return s.index != nil
}

func (s *ProductService) Search(ctx context.Context, query string, page, size int) (*ProductPage, error) {
	if s.index == nil {
		return nil, ErrSearchDisabled
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", ErrValidation)
	}

	offset, limit := util.Calculate(page, size)
	total, items, err := s.index.Search(ctx, query, offset, limit)
	if err != nil {
		return nil, err
	}
	return &ProductPage{Data: items, Meta: util.NewMeta(page, offset, limit, total)}, nil
}

// afterWrite publishes the change and refreshes the search document.
// Neither failure undoes the database write.
func (s *ProductService) afterWrite(ctx context.Context, typ string, prod *models.Product) {
	s.publish(ctx, prod.ID, mykafka.NewEvent(typ, map[string]any{
		"product_id": prod.ID,
		"name":       prod.Name,
		"price":      prod.Price,
		"stock":      prod.Stock,
	}))
	if s.index != nil {
		if err := s.index.IndexProduct(ctx, prod); err != nil {
			logging.FromContext(ctx).Error("es_index", "status", "fail", "product_id", prod.ID, "error", err)
		}
	}
}

func (s *ProductService) publish(ctx context.Context, id uint, ev mykafka.Event) {
	key := strconv.FormatUint(uint64(id), 10)
	if err := s.events.PublishEvent(ctx, mykafka.TopicProductEvents, key, ev); err != nil {
		logging.FromContext(ctx).Error("kafka_publish", "status", "fail", "topic", mykafka.TopicProductEvents, "event", ev.Type, "error", err)
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Skotchmaster/medorder/internal/events"
	"github.com/Skotchmaster/medorder/internal/models"
	"github.com/Skotchmaster/medorder/internal/repo"
	"github.com/Skotchmaster/medorder/internal/transport"
	"github.com/Skotchmaster/medorder/internal/util"
	"github.com/Skotchmaster/medorder/pkg/logging"
	"github.com/google/uuid"
)

const searchLimit = 50

type OrderService struct {
	Orders OrderStore
	// Index is optional; without it search runs against the store.
	Index  OrderIndex
	Events Publisher
	Now    func() time.Time
}

func (s *OrderService) Create(ctx context.Context, req transport.CreateOrderRequest, uc *UserContext) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "orders.create", "username", uc.Username)

	if err := req.Validate(); err != nil {
		l.Warn("create_order_error", "status", 400, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	now := nowOr(s.Now)
	order, err := s.Orders.CreateOrder(ctx, req.ToModel(uc.Username, now))
	if err != nil {
		l.Error("create_order_error", "status", 500, "error", err)
		return nil, err
	}

	if s.Index != nil {
		if err := s.Index.Index(ctx, order); err != nil {
			l.Warn("index_order_failed", "order_id", order.ID, "error", err)
		}
	}
	publishOrder(ctx, s.Events, events.OrderCreated, order.ID.String(), now, map[string]any{"created_by": uc.Username})
	l.Info("create_order_success", "order_id", order.ID)
	return order, nil
}

// List returns ErrNotFound for an empty page.
func (s *OrderService) List(ctx context.Context, page, size int) ([]models.Order, error) {
	from, limit := util.Calculate(page, size)
	orders, err := s.Orders.ListOrders(ctx, limit, from)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, fmt.Errorf("%w: no orders found", ErrNotFound)
	}
	return orders, nil
}

func (s *OrderService) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.Orders.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: order not found", ErrNotFound)
		}
		return nil, err
	}
	return order, nil
}

// Search prefers the search index and falls back to the store when it is absent or failing.
func (s *OrderService) Search(ctx context.Context, query string) ([]models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "orders.search")

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: q is required", ErrValidation)
	}

	if s.Index != nil {
		ids, err := s.Index.Search(ctx, query, searchLimit)
		if err == nil {
			return s.loadInOrder(ctx, ids)
		}
		l.Warn("search_index_failed", "error", err)
	}
	return s.Orders.SearchOrders(ctx, query, searchLimit)
}

func (s *OrderService) loadInOrder(ctx context.Context, ids []uuid.UUID) ([]models.Order, error) {
	found, err := s.Orders.GetOrdersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.Order, len(found))
	for _, o := range found {
		byID[o.ID] = o
	}
	out := make([]models.Order, 0, len(found))
	for _, id := range ids {
		if o, ok := byID[id]; ok {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *OrderService) UpdateStatus(ctx context.Context, id uuid.UUID, req transport.UpdateOrderStatusRequest) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "orders.update_status", "order_id", id)

	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	order, err := s.Orders.UpdateOrder(ctx, id, req.Fields())
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: order not found", ErrNotFound)
		}
		l.Error("update_order_error", "status", 500, "error", err)
		return nil, err
	}

	if s.Index != nil {
		if err := s.Index.Index(ctx, order); err != nil {
			l.Warn("index_order_failed", "error", err)
		}
	}
	l.Info("update_order_success")
	return order, nil
}

func (s *OrderService) Delete(ctx context.Context, id uuid.UUID, uc *UserContext) error {
	l := logging.FromContext(ctx).With("svc", "orders.delete", "order_id", id)

	if err := s.Orders.DeleteOrder(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("%w: order not found", ErrNotFound)
		}
		l.Error("delete_order_error", "status", 500, "error", err)
		return err
	}

	if s.Index != nil {
		if err := s.Index.Delete(ctx, id); err != nil {
			l.Warn("unindex_order_failed", "error", err)
		}
	}
	publishOrder(ctx, s.Events, events.OrderDeleted, id.String(), nowOr(s.Now), map[string]any{"deleted_by": uc.Username})
	l.Info("delete_order_success")
	return nil
}

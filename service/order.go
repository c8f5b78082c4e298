package service

import (
	"context"

	"bar-order-api/models"
	"bar-order-api/statemachine"
	"bar-order-api/store"

	"github.com/rs/zerolog"
)

type OrderService struct {
	orders *store.OrderRepo
	log    zerolog.Logger
}

func NewOrderService(orders *store.OrderRepo, log zerolog.Logger) *OrderService {
	return &OrderService{orders: orders, log: log}
}

// Create validates the request and persists the order with its details
// atomically
func (s *OrderService) Create(ctx context.Context, in OrderInput) (*models.Order, error) {
	req, err := NormalizeCreate(in)
	if err != nil {
		return nil, err
	}
	order, err := s.orders.CreateAggregate(ctx, &req.Order, req.Details)
	if err != nil {
		return nil, translate("create order", "order", 0, err)
	}
	s.log.Info().
		Uint("order_id", order.ID).
		Str("order_method", string(order.OrderMethod)).
		Str("table_number", order.TableNumber).
		Int("details", len(order.Details)).
		Msg("order created")
	return order, nil
}

// Update applies a partial overwrite. A present details list replaces all
// existing details in the same transaction as the field update.
func (s *OrderService) Update(ctx context.Context, id uint, in OrderInput) (*models.Order, error) {
	order, err := s.orders.UpdateAggregate(ctx, id, func(current *models.Order) (*store.OrderUpdate, error) {
		patch, err := NormalizeUpdate(*current, in)
		if err != nil {
			return nil, err
		}
		upd := &store.OrderUpdate{
			Fields:         patch.Fields,
			ReplaceDetails: patch.ReplaceDetails,
			Details:        patch.Details,
		}
		if patch.StatusChanged {
			upd.StatusChange = &models.OrderStatusChange{
				FromStatus: patch.From,
				ToStatus:   patch.To,
				Note:       "status set by order update",
			}
		}
		return upd, nil
	})
	if err != nil {
		return nil, translate("update order", "order", id, err)
	}
	s.log.Info().Uint("order_id", id).Bool("details_replaced", in.Details != nil).Msg("order updated")
	return order, nil
}

func (s *OrderService) Get(ctx context.Context, id uint) (*models.Order, error) {
	order, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, translate("get order", "order", id, err)
	}
	return order, nil
}

// List returns all orders, optionally only those placed through method
func (s *OrderService) List(ctx context.Context, method string) ([]models.Order, error) {
	filter := store.OrderFilter{}
	if method != "" {
		m := models.OrderMethod(method)
		if !m.Valid() {
			return nil, invalid("order_method", "\"%s\" is not a valid choice.", method)
		}
		filter.OrderMethod = m
	}
	orders, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, translate("list orders", "order", 0, err)
	}
	return orders, nil
}

func (s *OrderService) Delete(ctx context.Context, id uint) error {
	if err := s.orders.Delete(ctx, id); err != nil {
		return translate("delete order", "order", id, err)
	}
	s.log.Info().Uint("order_id", id).Msg("order deleted")
	return nil
}

// Cancel sets the order to CANCELLED whatever its current status
func (s *OrderService) Cancel(ctx context.Context, id uint) (*models.Order, error) {
	return s.transition(ctx, id, models.StatusCancelled, "order cancelled")
}

// Complete sets the order to COMPLETED whatever its current status
func (s *OrderService) Complete(ctx context.Context, id uint) (*models.Order, error) {
	return s.transition(ctx, id, models.StatusCompleted, "order completed")
}

func (s *OrderService) transition(ctx context.Context, id uint, to models.OrderStatus, note string) (*models.Order, error) {
	var from models.OrderStatus
	order, err := s.orders.UpdateAggregate(ctx, id, func(current *models.Order) (*store.OrderUpdate, error) {
		from = current.Status
		if err := statemachine.CanTransition(from, to); err != nil {
			return nil, invalid("status", "%s", err.Error())
		}
		upd := &store.OrderUpdate{Fields: map[string]interface{}{"status": to}}
		if from != to {
			upd.StatusChange = &models.OrderStatusChange{FromStatus: from, ToStatus: to, Note: note}
		}
		return upd, nil
	})
	if err != nil {
		return nil, translate(note, "order", id, err)
	}
	s.log.Info().
		Uint("order_id", id).
		Str("from_status", string(from)).
		Str("to_status", string(to)).
		Msg(note)
	return order, nil
}

// History returns the status-change audit trail of an order
func (s *OrderService) History(ctx context.Context, id uint) ([]models.OrderStatusChange, error) {
	changes, err := s.orders.History(ctx, id)
	if err != nil {
		return nil, translate("order history", "order", id, err)
	}
	return changes, nil
}

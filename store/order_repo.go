package store

import (
	"context"

	"bar-order-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepo struct {
	db *gorm.DB
}

func NewOrderRepo(db *gorm.DB) *OrderRepo {
	return &OrderRepo{db: db}
}

// OrderFilter narrows List; zero values match everything
type OrderFilter struct {
	OrderMethod models.OrderMethod
}

// OrderUpdate is the write plan computed from the current row
type OrderUpdate struct {
	Fields         map[string]interface{}
	ReplaceDetails bool
	Details        []models.OrderDetail
	StatusChange   *models.OrderStatusChange
}

// PlanFunc inspects the current order inside the transaction and decides
// what to write. Returning an error rolls everything back.
type PlanFunc func(current *models.Order) (*OrderUpdate, error)

func withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Details", func(db *gorm.DB) *gorm.DB { return db.Order("order_details.id asc") }).
		Preload("Details.Product")
}

func (r *OrderRepo) Get(ctx context.Context, id uint) (*models.Order, error) {
	return getOrder(r.db.WithContext(ctx), id)
}

func getOrder(db *gorm.DB, id uint) (*models.Order, error) {
	var order models.Order
	if err := withDetails(db).First(&order, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

// List returns orders newest first with details and products loaded
func (r *OrderRepo) List(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	query := withDetails(r.db.WithContext(ctx))
	if filter.OrderMethod != "" {
		query = query.Where("order_method = ?", filter.OrderMethod)
	}
	var orders []models.Order
	err := query.Order("id desc").Find(&orders).Error
	return orders, err
}

// CreateAggregate writes the order, its details and the initial status
// record in one transaction
func (r *OrderRepo) CreateAggregate(ctx context.Context, order *models.Order, details []models.OrderDetail) (*models.Order, error) {
	var created *models.Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureProducts(tx, details); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
			return err
		}
		if err := insertDetails(tx, order.ID, details); err != nil {
			return err
		}
		history := models.OrderStatusChange{
			OrderID:  order.ID,
			ToStatus: order.Status,
			Note:     "order placed via " + string(order.OrderMethod),
		}
		if err := tx.Create(&history).Error; err != nil {
			return err
		}
		var err error
		created, err = getOrder(tx, order.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateAggregate loads the order, asks plan for the changes and applies
// field updates, detail replacement and the status record atomically
func (r *OrderRepo) UpdateAggregate(ctx context.Context, id uint, plan PlanFunc) (*models.Order, error) {
	var updated *models.Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Order
		if err := tx.First(&current, id).Error; err != nil {
			return notFound(err)
		}
		upd, err := plan(&current)
		if err != nil {
			return err
		}
		if len(upd.Fields) > 0 {
			if err := tx.Model(&current).Omit("created_time").Updates(upd.Fields).Error; err != nil {
				return err
			}
		}
		if upd.ReplaceDetails {
			if err := replaceDetails(tx, id, upd.Details); err != nil {
				return err
			}
		}
		if upd.StatusChange != nil {
			upd.StatusChange.OrderID = id
			if err := tx.Create(upd.StatusChange).Error; err != nil {
				return err
			}
		}
		updated, err = getOrder(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// replaceDetails swaps the order's line items for the given ones:
// delete-by-parent then bulk insert, inside the caller's transaction
func replaceDetails(tx *gorm.DB, orderID uint, details []models.OrderDetail) error {
	if err := ensureProducts(tx, details); err != nil {
		return err
	}
	if err := tx.Where("order_id = ?", orderID).Delete(&models.OrderDetail{}).Error; err != nil {
		return err
	}
	return insertDetails(tx, orderID, details)
}

func insertDetails(tx *gorm.DB, orderID uint, details []models.OrderDetail) error {
	if len(details) == 0 {
		return nil
	}
	rows := make([]models.OrderDetail, len(details))
	for i, d := range details {
		d.ID = 0
		d.OrderID = orderID
		d.Product = models.Product{}
		rows[i] = d
	}
	return tx.Omit(clause.Associations).Create(&rows).Error
}

// ensureProducts fails with MissingProductError for the first detail whose
// product does not exist
func ensureProducts(tx *gorm.DB, details []models.OrderDetail) error {
	if len(details) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(details))
	for _, d := range details {
		ids = append(ids, d.ProductID)
	}
	var found []uint
	if err := tx.Model(&models.Product{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return err
	}
	exists := make(map[uint]bool, len(found))
	for _, id := range found {
		exists[id] = true
	}
	for _, d := range details {
		if !exists[d.ProductID] {
			return &MissingProductError{ProductID: d.ProductID}
		}
	}
	return nil
}

// Delete removes the order together with its details and history
func (r *OrderRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, id).Error; err != nil {
			return notFound(err)
		}
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderDetail{}).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderStatusChange{}).Error; err != nil {
			return err
		}
		return tx.Delete(&order).Error
	})
}

// History returns the status changes of an order, oldest first
func (r *OrderRepo) History(ctx context.Context, id uint) ([]models.OrderStatusChange, error) {
	db := r.db.WithContext(ctx)
	var order models.Order
	if err := db.Select("id").First(&order, id).Error; err != nil {
		return nil, notFound(err)
	}
	var changes []models.OrderStatusChange
	err := db.Where("order_id = ?", id).Order("id asc").Find(&changes).Error
	return changes, err
}

package repo

import (
	"context"
	"strings"

	"github.com/Skotchmaster/medorder/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if err := r.DB.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *GormRepo) ListOrders(ctx context.Context, limit, offset int) ([]models.Order, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var orders []models.Order
	if err := r.DB.WithContext(ctx).Preload("Medicines").
		Order("created_at DESC").Limit(limit).Offset(offset).
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormRepo) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var order models.Order
	if err := r.DB.WithContext(ctx).Preload("Medicines").Where("id = ?", id).First(&order).Error; err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (r *GormRepo) GetOrdersByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Order, error) {
	if len(ids) == 0 {
		return []models.Order{}, nil
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var orders []models.Order
	if err := r.DB.WithContext(ctx).Preload("Medicines").Where("id IN ?", ids).Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormRepo) UpdateOrder(ctx context.Context, id uuid.UUID, fields map[string]any) (*models.Order, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res := r.DB.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	var order models.Order
	if err := r.DB.WithContext(ctx).Preload("Medicines").Where("id = ?", id).First(&order).Error; err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (r *GormRepo) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.Medicine{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Order{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// SearchOrders is the store-side search used when no search cluster is configured.
func (r *GormRepo) SearchOrders(ctx context.Context, q string, limit int) ([]models.Order, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	like := "%" + strings.ToLower(strings.TrimSpace(q)) + "%"
	var orders []models.Order
	if err := r.DB.WithContext(ctx).Preload("Medicines").
		Where("LOWER(patient_name) LIKE ? OR mobile_no LIKE ? OR pincode LIKE ? OR LOWER(awb_docket_no) LIKE ?", like, like, like, like).
		Order("created_at DESC").Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

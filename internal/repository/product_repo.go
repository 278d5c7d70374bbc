package repository

import (
	"context"

	"github.com/CeosTech/CoachTemplate-sub001/internal/models"
)

type ProductRepository struct {
	db DBTX
}

func NewProductRepository(db DBTX) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) GetByID(ctx context.Context, productID int64) (*models.Product, error) {
	query := `
		SELECT id, name, credit_value, created_at
		FROM products
		WHERE id = $1
	`
	var product models.Product
	err := r.db.QueryRow(ctx, query, productID).Scan(
		&product.ID,
		&product.Name,
		&product.CreditValue,
		&product.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &product, nil
}

package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrProductReferenced = errors.New("product is referenced by order details")
)

// MissingProductError reports a detail pointing at a product that does not exist
type MissingProductError struct {
	ProductID uint
}

func (e *MissingProductError) Error() string {
	return fmt.Sprintf("product %d does not exist", e.ProductID)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductCategory is the kind of drink a product belongs to
type ProductCategory string

const (
	CategoryBaijiu  ProductCategory = "BAIJIU"
	CategoryRedWine ProductCategory = "RED_WINE"
	CategoryBeer    ProductCategory = "BEER"
	CategoryForeign ProductCategory = "FOREIGN"
)

// Valid reports whether c is one of the known categories
func (c ProductCategory) Valid() bool {
	switch c {
	case CategoryBaijiu, CategoryRedWine, CategoryBeer, CategoryForeign:
		return true
	}
	return false
}

// TemperatureRequirement describes how a product may be served
type TemperatureRequirement string

const (
	ServeCold TemperatureRequirement = "COLD"
	ServeHot  TemperatureRequirement = "HOT"
	ServeBoth TemperatureRequirement = "BOTH"
)

func (t TemperatureRequirement) Valid() bool {
	switch t {
	case ServeCold, ServeHot, ServeBoth:
		return true
	}
	return false
}

type Product struct {
	ID                     uint                   `json:"id" gorm:"primaryKey"`
	Name                   string                 `json:"name" gorm:"type:varchar(100);not null"`
	Category               ProductCategory        `json:"category" gorm:"type:varchar(20);not null"`
	AlcoholContent         decimal.Decimal        `json:"alcohol_content" gorm:"type:decimal(5,2);not null"`
	Price                  decimal.Decimal        `json:"price" gorm:"type:decimal(10,2);not null"`
	TemperatureRequirement TemperatureRequirement `json:"temperature_requirement" gorm:"type:varchar(10);not null;default:'COLD'"`
	Description            *string                `json:"description"`
	Image                  *string                `json:"image"` // path relative to the media root
	CreatedAt              time.Time              `json:"created_at"`
	UpdatedAt              time.Time              `json:"updated_at"`
}

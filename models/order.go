package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderMethod is the channel an order was placed through
type OrderMethod string

const (
	MethodQR    OrderMethod = "QR"
	MethodRobot OrderMethod = "ROBOT"
	MethodStaff OrderMethod = "STAFF"
)

func (m OrderMethod) Valid() bool {
	switch m {
	case MethodQR, MethodRobot, MethodStaff:
		return true
	}
	return false
}

// OrderStatus represents all possible states of a bar order
type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusCompleted OrderStatus = "COMPLETED"
	StatusCancelled OrderStatus = "CANCELLED"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// TemperatureChoice is the serving temperature picked for one line item
type TemperatureChoice string

const (
	ChoiceCold TemperatureChoice = "COLD"
	ChoiceHot  TemperatureChoice = "HOT"
)

func (t TemperatureChoice) Valid() bool {
	return t == ChoiceCold || t == ChoiceHot
}

type Order struct {
	ID             uint                `json:"id" gorm:"primaryKey"`
	CreatedTime    time.Time           `json:"created_time" gorm:"autoCreateTime;not null"`
	OrderMethod    OrderMethod         `json:"order_method" gorm:"type:varchar(10);not null;index"`
	TableNumber    string              `json:"table_number" gorm:"type:varchar(20);not null"`
	NumberOfDiners int                 `json:"number_of_diners" gorm:"not null"`
	RobotID        *string             `json:"robot_id" gorm:"type:varchar(50)"`
	Status         OrderStatus         `json:"status" gorm:"type:varchar(10);not null;default:'PENDING'"`
	TotalAmount    decimal.Decimal     `json:"total_amount" gorm:"type:decimal(10,2);not null"`
	Remarks        *string             `json:"remarks"`
	Details        []OrderDetail       `json:"details,omitempty" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	StatusHistory  []OrderStatusChange `json:"status_history,omitempty" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

type OrderDetail struct {
	ID                uint              `json:"id" gorm:"primaryKey"`
	OrderID           uint              `json:"order_id" gorm:"not null;index"`
	ProductID         uint              `json:"product_id" gorm:"not null;index"`
	Product           Product           `json:"product,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
	Quantity          int               `json:"quantity" gorm:"not null"`
	UnitPrice         decimal.Decimal   `json:"unit_price" gorm:"type:decimal(10,2);not null"` // captured at order time
	TemperatureChoice TemperatureChoice `json:"temperature_choice" gorm:"type:varchar(10);not null"`
}

// OrderStatusChange is the audit trail of status transitions
type OrderStatusChange struct {
	ID         uint        `json:"id" gorm:"primaryKey"`
	OrderID    uint        `json:"order_id" gorm:"not null;index"`
	FromStatus OrderStatus `json:"from_status"`
	ToStatus   OrderStatus `json:"to_status" gorm:"not null"`
	Note       string      `json:"note"`
	CreatedAt  time.Time   `json:"created_at"`
}

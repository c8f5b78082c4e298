package service

import (
	"time"

	"bar-order-api/models"
)

// Wire shapes are written out by hand so the JSON contract does not follow
// the table layout.

type OrderDetailResponse struct {
	ID                uint                     `json:"id"`
	Product           uint                     `json:"product"`
	ProductName       string                   `json:"product_name"`
	Quantity          int                      `json:"quantity"`
	UnitPrice         string                   `json:"unit_price"`
	TemperatureChoice models.TemperatureChoice `json:"temperature_choice"`
}

type OrderResponse struct {
	ID             uint                  `json:"id"`
	CreatedTime    time.Time             `json:"created_time"`
	OrderMethod    models.OrderMethod    `json:"order_method"`
	TableNumber    string                `json:"table_number"`
	NumberOfDiners int                   `json:"number_of_diners"`
	RobotID        *string               `json:"robot_id"`
	Status         models.OrderStatus    `json:"status"`
	TotalAmount    string                `json:"total_amount"`
	Remarks        *string               `json:"remarks"`
	Details        []OrderDetailResponse `json:"details"`
}

// RepresentOrder builds the order payload; each detail carries the name of
// the product it references. Details must be loaded with their product.
func RepresentOrder(o *models.Order) OrderResponse {
	details := make([]OrderDetailResponse, 0, len(o.Details))
	for _, d := range o.Details {
		details = append(details, OrderDetailResponse{
			ID:                d.ID,
			Product:           d.ProductID,
			ProductName:       d.Product.Name,
			Quantity:          d.Quantity,
			UnitPrice:         d.UnitPrice.StringFixed(2),
			TemperatureChoice: d.TemperatureChoice,
		})
	}
	return OrderResponse{
		ID:             o.ID,
		CreatedTime:    o.CreatedTime,
		OrderMethod:    o.OrderMethod,
		TableNumber:    o.TableNumber,
		NumberOfDiners: o.NumberOfDiners,
		RobotID:        o.RobotID,
		Status:         o.Status,
		TotalAmount:    o.TotalAmount.StringFixed(2),
		Remarks:        o.Remarks,
		Details:        details,
	}
}

func RepresentOrders(orders []models.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, RepresentOrder(&orders[i]))
	}
	return out
}

type StatusChangeResponse struct {
	FromStatus models.OrderStatus `json:"from_status,omitempty"`
	ToStatus   models.OrderStatus `json:"to_status"`
	Note       string             `json:"note"`
	CreatedAt  time.Time          `json:"created_at"`
}

func RepresentHistory(changes []models.OrderStatusChange) []StatusChangeResponse {
	out := make([]StatusChangeResponse, 0, len(changes))
	for _, c := range changes {
		out = append(out, StatusChangeResponse{
			FromStatus: c.FromStatus,
			ToStatus:   c.ToStatus,
			Note:       c.Note,
			CreatedAt:  c.CreatedAt,
		})
	}
	return out
}

type ProductResponse struct {
	ID                     uint                          `json:"id"`
	Name                   string                        `json:"name"`
	Category               models.ProductCategory        `json:"category"`
	AlcoholContent         string                        `json:"alcohol_content"`
	Price                  string                        `json:"price"`
	TemperatureRequirement models.TemperatureRequirement `json:"temperature_requirement"`
	Description            *string                       `json:"description"`
	Image                  *string                       `json:"image"`
}

// RepresentProduct renders a product; urlFor turns a stored image path into
// a URL the client can fetch
func RepresentProduct(p *models.Product, urlFor func(string) string) ProductResponse {
	resp := ProductResponse{
		ID:                     p.ID,
		Name:                   p.Name,
		Category:               p.Category,
		AlcoholContent:         p.AlcoholContent.StringFixed(2),
		Price:                  p.Price.StringFixed(2),
		TemperatureRequirement: p.TemperatureRequirement,
		Description:            p.Description,
	}
	if p.Image != nil && *p.Image != "" {
		u := urlFor(*p.Image)
		resp.Image = &u
	}
	return resp
}

func RepresentProducts(products []models.Product, urlFor func(string) string) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, RepresentProduct(&products[i], urlFor))
	}
	return out
}

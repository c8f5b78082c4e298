package service

import (
	"strings"
	"unicode/utf8"

	"bar-order-api/models"

	"github.com/shopspring/decimal"
)

const (
	maxTableNumberLen = 20
	maxRobotIDLen     = 50
)

// OrderInput is the decoded create/update body. Nil fields were omitted
// by the caller; a nil Details slice means "leave details alone".
type OrderInput struct {
	OrderMethod    *models.OrderMethod `json:"order_method"`
	TableNumber    *string             `json:"table_number"`
	NumberOfDiners *int                `json:"number_of_diners"`
	RobotID        *string             `json:"robot_id"`
	Status         *models.OrderStatus `json:"status"`
	TotalAmount    *decimal.Decimal    `json:"total_amount"`
	Remarks        *string             `json:"remarks"`
	Details        []DetailInput       `json:"details"`
}

// DetailInput accepts the product reference as either "product" or "product_id"
type DetailInput struct {
	Product           *uint                    `json:"product"`
	ProductID         *uint                    `json:"product_id"`
	Quantity          *int                     `json:"quantity"`
	UnitPrice         *decimal.Decimal         `json:"unit_price"`
	TemperatureChoice models.TemperatureChoice `json:"temperature_choice"`
}

func (d DetailInput) productRef() *uint {
	if d.ProductID != nil {
		return d.ProductID
	}
	return d.Product
}

// NewOrder is a validated, normalized create request
type NewOrder struct {
	Order   models.Order
	Details []models.OrderDetail
}

// NormalizeCreate validates a create request and derives the robot table
// label. Product existence is checked later inside the write transaction.
func NormalizeCreate(in OrderInput) (*NewOrder, error) {
	if in.OrderMethod == nil || *in.OrderMethod == "" {
		return nil, invalid("order_method", "This field is required.")
	}
	method := *in.OrderMethod
	if !method.Valid() {
		return nil, invalid("order_method", "\"%s\" is not a valid choice.", method)
	}

	// 1. diners
	if in.NumberOfDiners == nil {
		return nil, invalid("number_of_diners", "Please provide the number of diners.")
	}
	if *in.NumberOfDiners < 1 {
		return nil, invalid("number_of_diners", "Number of diners must be at least 1.")
	}

	// 2. table number, 3. robot rule
	table := trimmed(in.TableNumber)
	robotID := trimmed(in.RobotID)
	table, err := applyTableRules(method, table, robotID)
	if err != nil {
		return nil, err
	}

	if in.TotalAmount == nil {
		return nil, invalid("total_amount", "This field is required.")
	}
	if err := checkDecimal("total_amount", *in.TotalAmount, 10, 2); err != nil {
		return nil, err
	}

	status := models.StatusPending
	if in.Status != nil && *in.Status != "" {
		if !in.Status.Valid() {
			return nil, invalid("status", "\"%s\" is not a valid choice.", *in.Status)
		}
		status = *in.Status
	}

	if in.Details == nil {
		return nil, invalid("details", "This field is required.")
	}
	details, err := normalizeDetails(in.Details)
	if err != nil {
		return nil, err
	}

	order := models.Order{
		OrderMethod:    method,
		TableNumber:    table,
		NumberOfDiners: *in.NumberOfDiners,
		RobotID:        optional(robotID),
		Status:         status,
		TotalAmount:    in.TotalAmount.Round(2),
		Remarks:        in.Remarks,
	}
	return &NewOrder{Order: order, Details: details}, nil
}

// OrderPatch is a validated partial update against a current order
type OrderPatch struct {
	Fields         map[string]interface{}
	ReplaceDetails bool
	Details        []models.OrderDetail
	StatusChanged  bool
	From, To       models.OrderStatus
}

// NormalizeUpdate merges the provided fields over current and re-checks the
// order rules on the merged result. Omitted fields keep their value.
func NormalizeUpdate(current models.Order, in OrderInput) (*OrderPatch, error) {
	patch := &OrderPatch{Fields: map[string]interface{}{}}

	method := current.OrderMethod
	if in.OrderMethod != nil {
		if !in.OrderMethod.Valid() {
			return nil, invalid("order_method", "\"%s\" is not a valid choice.", *in.OrderMethod)
		}
		method = *in.OrderMethod
		patch.Fields["order_method"] = method
	}

	if in.NumberOfDiners != nil {
		if *in.NumberOfDiners < 1 {
			return nil, invalid("number_of_diners", "Number of diners must be at least 1.")
		}
		patch.Fields["number_of_diners"] = *in.NumberOfDiners
	}

	table := current.TableNumber
	if in.TableNumber != nil {
		table = strings.TrimSpace(*in.TableNumber)
	}
	robotID := ""
	if current.RobotID != nil {
		robotID = *current.RobotID
	}
	if in.RobotID != nil {
		robotID = strings.TrimSpace(*in.RobotID)
		patch.Fields["robot_id"] = optional(robotID)
	}
	derived, err := applyTableRules(method, table, robotID)
	if err != nil {
		return nil, err
	}
	if in.TableNumber != nil || derived != current.TableNumber {
		patch.Fields["table_number"] = derived
	}

	if in.TotalAmount != nil {
		if err := checkDecimal("total_amount", *in.TotalAmount, 10, 2); err != nil {
			return nil, err
		}
		patch.Fields["total_amount"] = in.TotalAmount.Round(2)
	}

	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, invalid("status", "\"%s\" is not a valid choice.", *in.Status)
		}
		patch.Fields["status"] = *in.Status
		if *in.Status != current.Status {
			patch.StatusChanged = true
			patch.From, patch.To = current.Status, *in.Status
		}
	}

	if in.Remarks != nil {
		patch.Fields["remarks"] = *in.Remarks
	}

	if in.Details != nil {
		details, err := normalizeDetails(in.Details)
		if err != nil {
			return nil, err
		}
		patch.ReplaceDetails = true
		patch.Details = details
	}
	return patch, nil
}

// applyTableRules enforces the table-number and robot rules and returns the
// effective table number
func applyTableRules(method models.OrderMethod, table, robotID string) (string, error) {
	if method != models.MethodRobot {
		if table == "" {
			return "", invalid("table_number", "Table number may not be blank.")
		}
		if utf8.RuneCountInString(table) > maxTableNumberLen {
			return "", invalid("table_number", "Ensure this field has no more than %d characters.", maxTableNumberLen)
		}
		return table, nil
	}

	if robotID == "" {
		return "", invalid("robot_id", "Robot orders must provide a robot ID.")
	}
	if utf8.RuneCountInString(robotID) > maxRobotIDLen {
		return "", invalid("robot_id", "Ensure this field has no more than %d characters.", maxRobotIDLen)
	}
	if table == "" {
		table = "ROBOT_" + robotID
	}
	if utf8.RuneCountInString(table) > maxTableNumberLen {
		return "", invalid("table_number", "Ensure this field has no more than %d characters.", maxTableNumberLen)
	}
	return table, nil
}

func normalizeDetails(in []DetailInput) ([]models.OrderDetail, error) {
	details := make([]models.OrderDetail, 0, len(in))
	for _, d := range in {
		ref := d.productRef()
		if ref == nil {
			return nil, invalid("product", "This field is required.")
		}
		if d.Quantity == nil {
			return nil, invalid("quantity", "This field is required.")
		}
		if d.UnitPrice == nil {
			return nil, invalid("unit_price", "This field is required.")
		}
		if err := checkDecimal("unit_price", *d.UnitPrice, 10, 2); err != nil {
			return nil, err
		}
		if !d.TemperatureChoice.Valid() {
			return nil, invalid("temperature_choice", "\"%s\" is not a valid choice.", d.TemperatureChoice)
		}
		details = append(details, models.OrderDetail{
			ProductID:         *ref,
			Quantity:          *d.Quantity,
			UnitPrice:         d.UnitPrice.Round(2),
			TemperatureChoice: d.TemperatureChoice,
		})
	}
	return details, nil
}

// checkDecimal mirrors a DECIMAL(maxDigits, places) column
func checkDecimal(field string, d decimal.Decimal, maxDigits, places int) error {
	if !d.Equal(d.Round(int32(places))) {
		return invalid(field, "Ensure that there are no more than %d decimal places.", places)
	}
	whole := d.Abs().Truncate(0).String()
	if len(whole) > maxDigits-places {
		return invalid(field, "Ensure that there are no more than %d digits before the decimal point.", maxDigits-places)
	}
	return nil
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order is one customer measurement submission.
type Order struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	ShopName     string             `bson:"shopName" json:"shopName"`
	ClientName   string             `bson:"clientName,omitempty" json:"clientName,omitempty"`
	ClientNumber string             `bson:"clientNumber,omitempty" json:"clientNumber,omitempty"`
	DeliveryDate string             `bson:"deliveryDate" json:"deliveryDate"`
	PickupDate   string             `bson:"pickupDate" json:"pickupDate"`
	Category     string             `bson:"category" json:"category"`
	// Subcategory holds the subcategory display name, not its taxonomy id.
	Subcategory  string             `bson:"subcategory" json:"subcategory"`
	Measurements map[string]float64 `bson:"measurements" json:"measurements"`
	Status       string             `bson:"status,omitempty" json:"status,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// OrderDraft is the body of a create request.
type OrderDraft struct {
	ShopName     string             `json:"shopName" validate:"required"`
	ClientName   string             `json:"clientName,omitempty"`
	ClientNumber string             `json:"clientNumber,omitempty" validate:"omitempty,min=10"`
	DeliveryDate string             `json:"deliveryDate" validate:"required"`
	PickupDate   string             `json:"pickupDate" validate:"required"`
	Category     string             `json:"category" validate:"required"`
	Subcategory  string             `json:"subcategory" validate:"required"`
	Measurements map[string]float64 `json:"measurements" validate:"dive,measurement"`
}

// MissingRequired reports whether any field the store cannot do without is blank.
func (d *OrderDraft) MissingRequired() bool {
	for _, v := range []string{d.ShopName, d.DeliveryDate, d.PickupDate, d.Category, d.Subcategory} {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}

// ToOrder copies the draft into a new, not yet persisted Order.
func (d *OrderDraft) ToOrder() *Order {
	measurements := make(map[string]float64, len(d.Measurements))
	for k, v := range d.Measurements {
		measurements[k] = v
	}
	return &Order{
		ShopName:     d.ShopName,
		ClientName:   d.ClientName,
		ClientNumber: d.ClientNumber,
		DeliveryDate: d.DeliveryDate,
		PickupDate:   d.PickupDate,
		Category:     d.Category,
		Subcategory:  d.Subcategory,
		Measurements: measurements,
	}
}

// OrderSummary is the list projection shown in the admin table.
type OrderSummary struct {
	ID           primitive.ObjectID `bson:"_id" json:"_id"`
	ShopName     string             `bson:"shopName" json:"shopName"`
	ClientName   string             `bson:"clientName,omitempty" json:"clientName,omitempty"`
	ClientNumber string             `bson:"clientNumber,omitempty" json:"clientNumber,omitempty"`
	Category     string             `bson:"category" json:"category"`
	Subcategory  string             `bson:"subcategory" json:"subcategory"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}

// OrderFilter narrows a listing. Zero values mean "no constraint".
// EndDate is an inclusive upper bound.
type OrderFilter struct {
	Shop        string     `json:"shop,omitempty"`
	Category    string     `json:"category,omitempty"`
	Subcategory string     `json:"subcategory,omitempty"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	EndDate     *time.Time `json:"endDate,omitempty"`

	// SubcategoryAny, when set, replaces Subcategory with a match on any of the values.
	SubcategoryAny []string `json:"subcategoryAny,omitempty"`
}

// OrderQuery is a filter plus a page cursor.
type OrderQuery struct {
	Filter OrderFilter `json:"filter"`
	Page   int64       `json:"page"`
	Limit  int64       `json:"limit"`
}

// OrderPage is one page of summaries and the total number of matches.
type OrderPage struct {
	Items []OrderSummary `json:"orders"`
	Total int64          `json:"total"`
	Page  int64          `json:"page"`
	Limit int64          `json:"limit"`
}

// Pages is ceil(total/limit).
func (p *OrderPage) Pages() int64 {
	if p.Limit <= 0 {
		return 0
	}
	return (p.Total + p.Limit - 1) / p.Limit
}

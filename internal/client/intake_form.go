package client

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"tailor-app/internal/models"
	"tailor-app/internal/taxonomy"
	"tailor-app/internal/utils"
)

var (
	ErrNoCategory   = errors.New("select a category first")
	ErrUnknownField = errors.New("measurement is not part of the selected subcategory")
)

// FieldErrors maps a form field to its validation message. Measurement
// fields are keyed "measurements.<key>".
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return strings.Join(parts, "; ")
}

// OrderSubmitter is the part of the API the intake form needs.
type OrderSubmitter interface {
	CreateOrder(ctx context.Context, draft models.OrderDraft, idempotencyKey string) (*SubmitResult, error)
}

// IntakeForm is the customer-facing measurement form. It is not safe for
// concurrent use.
type IntakeForm struct {
	tx  *taxonomy.Taxonomy
	api OrderSubmitter

	shopName     string
	clientName   string
	clientNumber string
	pickupDate   string
	deliveryDate string
	category     string
	subcategory  string
	values       map[string]float64

	// idempotencyKey identifies one submission of the current form contents.
	// Any edit drops it.
	idempotencyKey string
}

func NewIntakeForm(tx *taxonomy.Taxonomy, api OrderSubmitter) *IntakeForm {
	return &IntakeForm{tx: tx, api: api, values: make(map[string]float64)}
}

func (f *IntakeForm) touch() {
	f.idempotencyKey = ""
}

func (f *IntakeForm) SetShopName(v string) {
	f.shopName = v
	f.touch()
}

func (f *IntakeForm) SetClientName(v string) {
	f.clientName = v
	f.touch()
}

func (f *IntakeForm) SetClientNumber(v string) {
	f.clientNumber = v
	f.touch()
}

func (f *IntakeForm) SetPickupDate(v string) {
	f.pickupDate = v
	f.touch()
}

func (f *IntakeForm) SetDeliveryDate(v string) {
	f.deliveryDate = v
	f.touch()
}

func (f *IntakeForm) Category() string {
	return f.category
}

func (f *IntakeForm) Subcategory() string {
	return f.subcategory
}

// SelectCategory switches the category. The subcategory and every measurement value are cleared.
func (f *IntakeForm) SelectCategory(id string) error {
	if id != "" {
		if _, err := f.tx.Category(id); err != nil {
			return err
		}
	}
	f.category = id
	f.subcategory = ""
	f.values = make(map[string]float64)
	f.touch()
	return nil
}

// SelectSubcategory switches the subcategory within the selected category.
// Values for keys the new subcategory does not have are dropped.
func (f *IntakeForm) SelectSubcategory(id string) error {
	if f.category == "" {
		return ErrNoCategory
	}
	if id == "" {
		f.subcategory = ""
		f.values = make(map[string]float64)
		f.touch()
		return nil
	}
	sub, err := f.tx.Subcategory(f.category, id)
	if err != nil {
		return err
	}
	for key := range f.values {
		if !sub.HasKey(key) {
			delete(f.values, key)
		}
	}
	f.subcategory = id
	f.touch()
	return nil
}

// Fields returns the measurement inputs of the selected subcategory, empty when none is selected.
func (f *IntakeForm) Fields() []models.MeasurementField {
	sub, ok := f.selected()
	if !ok {
		return nil
	}
	return sub.Measurements
}

func (f *IntakeForm) selected() (models.Subcategory, bool) {
	if f.category == "" || f.subcategory == "" {
		return models.Subcategory{}, false
	}
	sub, err := f.tx.Subcategory(f.category, f.subcategory)
	if err != nil {
		return models.Subcategory{}, false
	}
	return sub, true
}

// SetMeasurement records raw for key. Out-of-range input is clamped to the
// bounds and an empty string clears the value.
func (f *IntakeForm) SetMeasurement(key, raw string) error {
	sub, ok := f.selected()
	if !ok || !sub.HasKey(key) {
		return fmt.Errorf("%w: %q", ErrUnknownField, key)
	}

	raw = strings.TrimSpace(raw)
	f.touch()
	if raw == "" {
		delete(f.values, key)
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("%s: %q is not a number", key, raw)
	}
	switch {
	case v < utils.MeasurementMin:
		v = utils.MeasurementMin
	case v > utils.MeasurementMax:
		v = utils.MeasurementMax
	}
	f.values[key] = v
	return nil
}

// Measurement returns the value entered for key.
func (f *IntakeForm) Measurement(key string) (float64, bool) {
	v, ok := f.values[key]
	return v, ok
}

// Validate checks the whole form and returns nil when it can be submitted.
func (f *IntakeForm) Validate() FieldErrors {
	errs := FieldErrors{}

	if strings.TrimSpace(f.shopName) == "" {
		errs["shopName"] = "Shop name is required"
	}
	if n := strings.TrimSpace(f.clientNumber); n != "" && len(n) < 10 {
		errs["clientNumber"] = "Client number must be at least 10 digits"
	}

	pickup, pickupOK := f.checkDate(errs, "pickupDate", f.pickupDate, "Pickup date")
	delivery, deliveryOK := f.checkDate(errs, "deliveryDate", f.deliveryDate, "Delivery date")
	if pickupOK && deliveryOK && delivery.Before(pickup) {
		errs["deliveryDate"] = "Delivery date cannot be before the pickup date"
	}

	if f.category == "" {
		errs["category"] = "Category is required"
	}
	if f.subcategory == "" {
		errs["subcategory"] = "Subcategory is required"
	}

	for key, v := range f.values {
		if !utils.ValidMeasurement(v) {
			errs["measurements."+key] = fmt.Sprintf("Must be a number between %g and %g", utils.MeasurementMin, utils.MeasurementMax)
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func (f *IntakeForm) checkDate(errs FieldErrors, field, raw, label string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		errs[field] = label + " is required"
		return time.Time{}, false
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		errs[field] = label + " must be in yyyy-MM-dd format"
		return time.Time{}, false
	}
	return t, true
}

// Draft builds the create request. The subcategory is sent as its display name.
func (f *IntakeForm) Draft() models.OrderDraft {
	subcategory := f.subcategory
	if sub, ok := f.selected(); ok {
		subcategory = sub.Name
	}
	measurements := make(map[string]float64, len(f.values))
	for k, v := range f.values {
		measurements[k] = v
	}
	return models.OrderDraft{
		ShopName:     strings.TrimSpace(f.shopName),
		ClientName:   strings.TrimSpace(f.clientName),
		ClientNumber: strings.TrimSpace(f.clientNumber),
		DeliveryDate: strings.TrimSpace(f.deliveryDate),
		PickupDate:   strings.TrimSpace(f.pickupDate),
		Category:     f.category,
		Subcategory:  subcategory,
		Measurements: measurements,
	}
}

// Submit validates and posts the form. Nothing is sent when validation fails.
// Retrying an unchanged form reuses its idempotency key. The form keeps its
// contents after a successful submit.
func (f *IntakeForm) Submit(ctx context.Context) (*SubmitResult, error) {
	if errs := f.Validate(); errs != nil {
		return nil, errs
	}
	if f.idempotencyKey == "" {
		f.idempotencyKey = uuid.NewString()
	}

	result, err := f.api.CreateOrder(ctx, f.Draft(), f.idempotencyKey)
	if err != nil {
		return nil, err
	}
	// A deliberate second submit is a new order.
	f.touch()
	return result, nil
}

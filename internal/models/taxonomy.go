package models

// MeasurementField describes one numeric input of a subcategory.
type MeasurementField struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`
	Unit  string `json:"unit"`
}

type Subcategory struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Measurements []MeasurementField `json:"measurements"`
}

type Category struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Subcategories []Subcategory `json:"subcategories"`
}

// Keys returns the measurement keys of the subcategory in display order.
func (s Subcategory) Keys() []string {
	keys := make([]string, 0, len(s.Measurements))
	for _, m := range s.Measurements {
		keys = append(keys, m.Key)
	}
	return keys
}

// HasKey reports whether key is one of the subcategory's measurement fields.
func (s Subcategory) HasKey(key string) bool {
	for _, m := range s.Measurements {
		if m.Key == key {
			return true
		}
	}
	return false
}

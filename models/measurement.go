package models

import (
	"time"

	"gorm.io/datatypes"
)

// MeasurementFields are the numeric body measurements the shop records
var MeasurementFields = []string{"shoulder", "sleeve", "length", "chest", "waist", "hip", "leg"}

// BodyMeasurements holds the known numeric fields; nil means not taken
type BodyMeasurements struct {
	Shoulder *float64 `json:"shoulder,omitempty"`
	Sleeve   *float64 `json:"sleeve,omitempty"`
	Length   *float64 `json:"length,omitempty"`
	Chest    *float64 `json:"chest,omitempty"`
	Waist    *float64 `json:"waist,omitempty"`
	Hip      *float64 `json:"hip,omitempty"`
	Leg      *float64 `json:"leg,omitempty"`
}

// Set assigns a numeric field by its lowercase name. Unknown names are ignored.
func (b *BodyMeasurements) Set(field string, value float64) bool {
	v := value
	switch field {
	case "shoulder":
		b.Shoulder = &v
	case "sleeve":
		b.Sleeve = &v
	case "length":
		b.Length = &v
	case "chest":
		b.Chest = &v
	case "waist":
		b.Waist = &v
	case "hip":
		b.Hip = &v
	case "leg":
		b.Leg = &v
	default:
		return false
	}
	return true
}

// IsEmpty reports whether no numeric field is set
func (b BodyMeasurements) IsEmpty() bool {
	return b.Shoulder == nil && b.Sleeve == nil && b.Length == nil && b.Chest == nil &&
		b.Waist == nil && b.Hip == nil && b.Leg == nil
}

// Measurement is one version of a customer's measurements for a garment type.
// Edits create a new row; existing rows are never rewritten.
type Measurement struct {
	ID               uint              `gorm:"primaryKey" json:"id"`
	CustomerID       uint              `gorm:"not null;index" json:"customer_id"`
	Customer         Customer          `gorm:"foreignKey:CustomerID" json:"-"`
	GarmentType      string            `gorm:"not null" json:"garment_type"`
	BodyMeasurements `gorm:"embedded"`
	ExtraFields      datatypes.JSONMap `json:"extra_fields,omitempty"`
	IsDefault        bool              `gorm:"not null;default:false" json:"is_default"`
	CreatedBy        *uint             `json:"created_by,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// TableName specifies the table name for the Measurement model
func (Measurement) TableName() string {
	return "measurements"
}

// Snapshot copies the measurement into an order snapshot
func (m Measurement) Snapshot() MeasurementSnapshot {
	snap := MeasurementSnapshot{
		GarmentType:      m.GarmentType,
		BodyMeasurements: copyBody(m.BodyMeasurements),
	}
	if len(m.ExtraFields) > 0 {
		snap.ExtraFields = datatypes.JSONMap{}
		for k, v := range m.ExtraFields {
			snap.ExtraFields[k] = v
		}
	}
	return snap
}

func copyBody(b BodyMeasurements) BodyMeasurements {
	cp := func(p *float64) *float64 {
		if p == nil {
			return nil
		}
		v := *p
		return &v
	}
	return BodyMeasurements{
		Shoulder: cp(b.Shoulder),
		Sleeve:   cp(b.Sleeve),
		Length:   cp(b.Length),
		Chest:    cp(b.Chest),
		Waist:    cp(b.Waist),
		Hip:      cp(b.Hip),
		Leg:      cp(b.Leg),
	}
}

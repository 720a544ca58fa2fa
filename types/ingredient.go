package types

// Ingredient is catalog reference data. The (Name, MeasurementUnit) pair is unique.
type Ingredient struct {
	ID              int    `json:"id" db:"id"`
	Name            string `json:"name" db:"name"`
	MeasurementUnit string `json:"measurement_unit" db:"measurement_unit"`
}

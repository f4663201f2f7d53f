package models

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var ErrUnknownMeasurementUnit = errors.New("unknown measurement unit")

// MeasurementUnit is the unit an ingredient amount is expressed in
type MeasurementUnit string

const DefaultMeasurementUnit MeasurementUnit = "ст. л."

// MeasurementUnits lists every unit an ingredient may be stored with.
var MeasurementUnits = []MeasurementUnit{
	"ст. л.", "ч. л.", "г", "кг", "мл", "л", "стакан", "по вкусу", "шт.",
	"капля", "звездочка", "щепотка", "горсть", "кусок", "пакет", "пучок",
	"долька", "стручок", "стебель", "бутылка", "зубчик", "веточка", "банка",
	"тушка", "батон", "пачка", "лист", "пласт", "упаковка",
}

// Valid reports whether u is one of MeasurementUnits.
func (u MeasurementUnit) Valid() bool {
	for _, unit := range MeasurementUnits {
		if u == unit {
			return true
		}
	}
	return false
}

// Ingredient is catalog reference data; the same name may exist once per unit.
// NameLower is the Unicode lower case of Name, kept for prefix search because
// SQLite's LOWER only folds ASCII.
type Ingredient struct {
	ID              uint            `json:"id" gorm:"primaryKey"`
	Name            string          `json:"name" gorm:"type:varchar(256);not null;uniqueIndex:idx_ingredient_name_unit"`
	NameLower       string          `json:"-" gorm:"type:varchar(256);not null;default:'';index:idx_ingredient_name_lower"`
	MeasurementUnit MeasurementUnit `json:"measurement_unit" gorm:"type:varchar(32);not null;default:'ст. л.';uniqueIndex:idx_ingredient_name_unit"`
}

func (i *Ingredient) BeforeSave(tx *gorm.DB) error {
	if i.MeasurementUnit == "" {
		i.MeasurementUnit = DefaultMeasurementUnit
	}
	if !i.MeasurementUnit.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownMeasurementUnit, i.MeasurementUnit)
	}
	i.NameLower = strings.ToLower(i.Name)
	return nil
}

package models

import (
	"fmt"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

/*
Column mismatch report:

Lists database columns that have no corresponding field in the Go model. Run
the server with GENERATE_COLUMN_REPORT=true to print it and exit. Columns
added by hand (for example after a manual hotfix) show up here before they
silently drift from the code.
*/

// All returns every persisted model in dependency order.
func All() []any {
	return []any{
		&User{},
		&Ingredient{},
		&Tag{},
		&Recipe{},
		&RecipeIngredientAmount{},
		&FavoriteRecipe{},
		&ShoppingCartRecipe{},
		&Subscription{},
		&RevokedToken{},
	}
}

// Migrate creates or updates the schema for every model.
func Migrate(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database handle is nil")
	}
	if err := db.AutoMigrate(All()...); err != nil {
		return err
	}
	// Rows written before name_lower existed
	return db.Exec("UPDATE ingredients SET name_lower = LOWER(name) WHERE name_lower = ''").Error
}

// ColumnMismatchReport maps table name to the columns present in the database
// but absent from the model. Tables that do not exist yet are skipped.
func ColumnMismatchReport(db *gorm.DB) (map[string][]string, error) {
	report := make(map[string][]string)

	for _, model := range All() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return nil, fmt.Errorf("parse model %T: %w", model, err)
		}
		tableName := stmt.Schema.Table

		if !db.Migrator().HasTable(tableName) {
			continue
		}

		columnTypes, err := db.Migrator().ColumnTypes(model)
		if err != nil {
			return nil, fmt.Errorf("read columns of %s: %w", tableName, err)
		}

		mismatches := findColumnMismatches(columnTypes, stmt.Schema)
		if len(mismatches) > 0 {
			report[tableName] = mismatches
		}
	}

	return report, nil
}

func findColumnMismatches(columnTypes []gorm.ColumnType, s *schema.Schema) []string {
	var mismatches []string
	for _, column := range columnTypes {
		if _, ok := s.FieldsByDBName[column.Name()]; !ok {
			mismatches = append(mismatches, column.Name())
		}
	}
	sort.Strings(mismatches)
	return mismatches
}

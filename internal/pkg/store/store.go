package store

import (
	"context"
	"reflect"
	"strings"

	"github.com/jmoiron/sqlx"
)

// DTO is a row payload. Its `db` tagged fields map to table columns and
// PrimaryKey returns the value of the id column.
type DTO interface {
	PrimaryKey() string
}

// Datastorer is a table of T rows keyed by a string id. Queries passed in
// use `?` placeholders and are rebound for the driver in use.
type Datastorer[T any] interface {
	Create(ctx context.Context, data DTO) (*T, error)
	// Update sets the non-empty fields of data on row id.
	Update(ctx context.Context, id string, data DTO) (*T, error)
	QueryRow(ctx context.Context, query string, args ...any) (any, error)
	Get(ctx context.Context, query string, args ...any) (*T, error)
	Select(ctx context.Context, query string, args ...any) ([]T, error)

	// Exec runs a statement and reports the number of affected rows.
	Exec(ctx context.Context, query string, args ...any) (int64, error)

	// WithTx runs fn in a transaction, committed when fn returns nil.
	WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
}

func getStructFieldNamesFromInstance(instance any) []string {
	typ := reflect.TypeOf(instance)
	if typ.Kind() == reflect.Ptr { // Handle pointer types
		typ = typ.Elem()
	}

	var fields []string

	for i := range typ.NumField() {
		field := typ.Field(i)
		dbTag := field.Tag.Get("db")

		if dbTag != "" && dbTag != "-" {
			fields = append(fields, dbTag)
		}
	}

	return fields
}

// getStructFieldsFromDTO extracts column names and named placeholders from a DTO struct
func getStructFieldsFromDTO(dto DTO) (columns string, placeholders string) {
	t := reflect.TypeOf(dto)
	if t.Kind() == reflect.Ptr {
		t = t.Elem() // Dereference pointer
	}

	var columnNames []string
	var placeholderNames []string

	for i := range t.NumField() {
		field := t.Field(i)

		dbTag := field.Tag.Get("db")
		if dbTag == "" || dbTag == "-" {
			continue // Skip fields without a `db` tag or explicitly ignored fields
		}

		columnNames = append(columnNames, dbTag)
		placeholderNames = append(placeholderNames, ":"+dbTag)
	}

	return strings.Join(columnNames, ", "), strings.Join(placeholderNames, ", ")
}

// getNonEmptyFieldsFromDTO builds the SET clause of a partial update. Nil
// pointers, maps and slices and empty strings are left out.
func getNonEmptyFieldsFromDTO(dto DTO, params map[string]any) string {
	v := reflect.ValueOf(dto)
	t := reflect.TypeOf(dto)

	if v.Kind() == reflect.Ptr {
		v = v.Elem()
		t = t.Elem()
	}

	var fields []string

	for i := range v.NumField() {
		field := t.Field(i)
		value := v.Field(i)

		columnName := field.Tag.Get("db")
		if columnName == "-" || columnName == "id" {
			continue
		}
		if columnName == "" {
			columnName = strings.ToLower(field.Name)
		}

		if isEmpty(value) {
			continue
		}

		fields = append(fields, columnName+" = :"+columnName)
		params[columnName] = value.Interface()
	}

	return strings.Join(fields, ", ")
}

func isEmpty(value reflect.Value) bool {
	switch value.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface:
		return value.IsNil()
	case reflect.String:
		return value.String() == ""
	default:
		return false
	}
}

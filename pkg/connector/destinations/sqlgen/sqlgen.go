// Package sqlgen builds the DDL and upsert statements shared by the SQL
// destinations.
package sqlgen

import (
	"fmt"
	"strings"

	"github.com/ajitpratap0/flightsync/pkg/connector/core"
)

// Dialect selects quoting, placeholders, type names and upsert syntax
type Dialect int

const (
	Postgres Dialect = iota
	MySQL
	SQLite
)

func (d Dialect) String() string {
	switch d {
	case Postgres:
		return "postgres"
	case MySQL:
		return "mysql"
	case SQLite:
		return "sqlite"
	default:
		return fmt.Sprintf("dialect(%d)", int(d))
	}
}

// QuoteIdent quotes an identifier, doubling any embedded quote character
func (d Dialect) QuoteIdent(name string) string {
	if d == MySQL {
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Placeholder returns the bind marker of the i-th argument (1-based)
func (d Dialect) Placeholder(i int) string {
	if d == Postgres {
		return fmt.Sprintf("$%d", i)
	}
	return "?"
}

// TypeName maps a column type to the dialect's column type. key is true for
// primary key columns, which MySQL cannot index as TEXT.
func (d Dialect) TypeName(t core.ColumnType, key bool) string {
	switch d {
	case Postgres:
		switch t {
		case core.ColumnTypeString:
			return "TEXT"
		case core.ColumnTypeDouble:
			return "DOUBLE PRECISION"
		case core.ColumnTypeInt:
			return "BIGINT"
		case core.ColumnTypeBoolean:
			return "BOOLEAN"
		case core.ColumnTypeUTCDateTime:
			return "TIMESTAMPTZ"
		}
	case MySQL:
		switch t {
		case core.ColumnTypeString:
			if key {
				return "VARCHAR(255)"
			}
			return "TEXT"
		case core.ColumnTypeDouble:
			return "DOUBLE"
		case core.ColumnTypeInt:
			return "BIGINT"
		case core.ColumnTypeBoolean:
			return "BOOLEAN"
		case core.ColumnTypeUTCDateTime:
			return "DATETIME(6)"
		}
	case SQLite:
		switch t {
		case core.ColumnTypeString:
			return "TEXT"
		case core.ColumnTypeDouble:
			return "REAL"
		case core.ColumnTypeInt:
			return "INTEGER"
		case core.ColumnTypeBoolean:
			return "BOOLEAN"
		case core.ColumnTypeUTCDateTime:
			return "TIMESTAMP"
		}
	}
	return "TEXT"
}

// CreateTable returns an idempotent CREATE TABLE statement for schema
func CreateTable(d Dialect, schema *core.TableSchema) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(d.QuoteIdent(schema.Table))
	b.WriteString(" (\n")

	for _, c := range schema.Columns {
		b.WriteString("  ")
		b.WriteString(d.QuoteIdent(c.Name))
		b.WriteByte(' ')
		b.WriteString(d.TypeName(c.Type, schema.IsKey(c.Name)))
		if schema.IsKey(c.Name) {
			b.WriteString(" NOT NULL")
		}
		b.WriteString(",\n")
	}

	b.WriteString("  PRIMARY KEY (")
	b.WriteString(quoteList(d, schema.PrimaryKey))
	b.WriteString(")\n)")
	return b.String()
}

// Upsert returns an INSERT that replaces the non-key columns of an existing
// row with the same primary key. Arguments follow schema.Columns order.
func Upsert(d Dialect, schema *core.TableSchema) string {
	cols := schema.ColumnNames()
	marks := make([]string, len(cols))
	for i := range cols {
		marks[i] = d.Placeholder(i + 1)
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(d.QuoteIdent(schema.Table))
	b.WriteString(" (")
	b.WriteString(quoteList(d, cols))
	b.WriteString(") VALUES (")
	b.WriteString(strings.Join(marks, ", "))
	b.WriteString(")")

	var sets []string
	for _, c := range cols {
		if schema.IsKey(c) {
			continue
		}
		q := d.QuoteIdent(c)
		if d == MySQL {
			sets = append(sets, fmt.Sprintf("%s = VALUES(%s)", q, q))
		} else {
			sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", q, q))
		}
	}

	if d == MySQL {
		b.WriteString(" ON DUPLICATE KEY UPDATE ")
		if len(sets) == 0 {
			k := d.QuoteIdent(schema.PrimaryKey[0])
			b.WriteString(k + " = " + k)
		} else {
			b.WriteString(strings.Join(sets, ", "))
		}
		return b.String()
	}

	b.WriteString(" ON CONFLICT (")
	b.WriteString(quoteList(d, schema.PrimaryKey))
	b.WriteString(")")
	if len(sets) == 0 {
		b.WriteString(" DO NOTHING")
	} else {
		b.WriteString(" DO UPDATE SET ")
		b.WriteString(strings.Join(sets, ", "))
	}
	return b.String()
}

// Args returns the values of record in schema.Columns order
func Args(schema *core.TableSchema, record core.Record) []interface{} {
	args := make([]interface{}, len(schema.Columns))
	for i, c := range schema.Columns {
		args[i] = record[c.Name]
	}
	return args
}

func quoteList(d Dialect, names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = d.QuoteIdent(n)
	}
	return strings.Join(quoted, ", ")
}

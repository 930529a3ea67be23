package sqlgen

import (
	"testing"
	"time"

	"github.com/ajitpratap0/flightsync/pkg/connector/core"
	"github.com/stretchr/testify/assert"
)

var flights = &core.TableSchema{
	Table:      "live_flights",
	PrimaryKey: []string{"icao24"},
	Columns: []core.Column{
		{Name: "icao24", Type: core.ColumnTypeString},
		{Name: "last_contact", Type: core.ColumnTypeUTCDateTime},
		{Name: "velocity", Type: core.ColumnTypeDouble},
	},
}

func TestCreateTable(t *testing.T) {
	assert.Equal(t, `CREATE TABLE IF NOT EXISTS "live_flights" (
  "icao24" TEXT NOT NULL,
  "last_contact" TIMESTAMPTZ,
  "velocity" DOUBLE PRECISION,
  PRIMARY KEY ("icao24")
)`, CreateTable(Postgres, flights))

	assert.Equal(t, "CREATE TABLE IF NOT EXISTS `live_flights` (\n"+
		"  `icao24` VARCHAR(255) NOT NULL,\n"+
		"  `last_contact` DATETIME(6),\n"+
		"  `velocity` DOUBLE,\n"+
		"  PRIMARY KEY (`icao24`)\n)", CreateTable(MySQL, flights))

	assert.Contains(t, CreateTable(SQLite, flights), `"velocity" REAL`)
}

func TestUpsert(t *testing.T) {
	assert.Equal(t,
		`INSERT INTO "live_flights" ("icao24", "last_contact", "velocity") VALUES ($1, $2, $3)`+
			` ON CONFLICT ("icao24") DO UPDATE SET "last_contact" = EXCLUDED."last_contact", "velocity" = EXCLUDED."velocity"`,
		Upsert(Postgres, flights))

	assert.Equal(t,
		"INSERT INTO `live_flights` (`icao24`, `last_contact`, `velocity`) VALUES (?, ?, ?)"+
			" ON DUPLICATE KEY UPDATE `last_contact` = VALUES(`last_contact`), `velocity` = VALUES(`velocity`)",
		Upsert(MySQL, flights))

	assert.Equal(t,
		`INSERT INTO "live_flights" ("icao24", "last_contact", "velocity") VALUES (?, ?, ?)`+
			` ON CONFLICT ("icao24") DO UPDATE SET "last_contact" = EXCLUDED."last_contact", "velocity" = EXCLUDED."velocity"`,
		Upsert(SQLite, flights))
}

func TestUpsert_KeyOnly(t *testing.T) {
	keys := &core.TableSchema{
		Table:      "seen",
		PrimaryKey: []string{"icao24"},
		Columns:    []core.Column{{Name: "icao24", Type: core.ColumnTypeString}},
	}
	assert.Contains(t, Upsert(Postgres, keys), "DO NOTHING")
	assert.Contains(t, Upsert(MySQL, keys), "ON DUPLICATE KEY UPDATE `icao24` = `icao24`")
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"we""ird"`, Postgres.QuoteIdent(`we"ird`))
	assert.Equal(t, "`we``ird`", MySQL.QuoteIdent("we`ird"))
}

func TestArgs(t *testing.T) {
	ts := time.Unix(1700000000, 0).UTC()
	args := Args(flights, core.Record{"velocity": 1.5, "icao24": "abc", "last_contact": ts})
	assert.Equal(t, []interface{}{"abc", ts, 1.5}, args)

	args = Args(flights, core.Record{"icao24": "abc"})
	assert.Equal(t, []interface{}{"abc", nil, nil}, args)
}

func TestDialect_String(t *testing.T) {
	assert.Equal(t, "postgres", Postgres.String())
	assert.Equal(t, "mysql", MySQL.String())
	assert.Equal(t, "sqlite", SQLite.String())
}

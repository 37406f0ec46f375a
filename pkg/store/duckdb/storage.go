package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/marcboeker/go-duckdb/v2"
)

const ReportArchiveSchema = `
	CREATE TABLE IF NOT EXISTS report_archive (
		id VARCHAR NOT NULL PRIMARY KEY,
		surface VARCHAR NOT NULL,
		generation UBIGINT NOT NULL,
		time_range VARCHAR NOT NULL,
		state VARCHAR NOT NULL,
		processes VARCHAR NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		payload VARCHAR NOT NULL
	);
`

var bootQueries = []string{
	ReportArchiveSchema,
}

type Settings struct {
	DbPath string
}

func NewDB(settings Settings) (*sql.DB, error) {
	if settings.DbPath == "" {
		return nil, fmt.Errorf("duckdb path is empty")
	}

	c, err := duckdb.NewConnector(fmt.Sprintf("%s?threads=4", settings.DbPath), func(exec driver.ExecerContext) error {
		for _, query := range bootQueries {
			_, err := exec.ExecContext(context.Background(), query, nil)
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	db := sql.OpenDB(c)
	return db, nil
}

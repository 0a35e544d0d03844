package postgresutils

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"k8s.io/klog"

	"github.com/bcaldwell/bistroledger/pkg/config"
)

func CreatePostgresClient(dbname string) (*bun.DB, error) {
	var pgconn *pgdriver.Connector

	// bypass creating of db if database_url is set because we are likely running in heroku then
	if config.CurrentSecrets().DatabaseURL == "" {
		err := ensureDBExistsInPostgres(dbname)
		if err != nil {
			return nil, err
		}

		pgconn = pgdriver.NewConnector(
			pgdriver.WithAddr(hostWithPort(config.CurrentSqlSecrets().SqlHost)),
			pgdriver.WithInsecure(true),
			pgdriver.WithUser(config.CurrentSqlSecrets().SqlUsername),
			pgdriver.WithPassword(config.CurrentSqlSecrets().SqlPassword),
			pgdriver.WithDatabase(dbname),
		)
	} else {
		// this panics if its invalid
		pgconn = pgdriver.NewConnector(pgdriver.WithDSN(config.CurrentSecrets().DatabaseURL))
	}

	db := sql.OpenDB(pgconn)
	err := db.Ping()

	return bun.NewDB(db, pgdialect.New()), err
}

// hostWithPort adds the default postgres port when the host has none.
func hostWithPort(host string) string {
	if !strings.Contains(host, ":") {
		return host + ":5432"
	}
	return host
}

func ensureDBExistsInPostgres(dbname string) error {
	pgconn := pgdriver.NewConnector(
		pgdriver.WithAddr(hostWithPort(config.CurrentSqlSecrets().SqlHost)),
		pgdriver.WithInsecure(true),
		pgdriver.WithUser(config.CurrentSqlSecrets().SqlUsername),
		pgdriver.WithPassword(config.CurrentSqlSecrets().SqlPassword),
		pgdriver.WithDatabase("postgres"),
	)

	db := sql.OpenDB(pgconn)
	defer db.Close()

	rows, err := db.Query("SELECT datname FROM pg_database WHERE datname = $1", dbname)
	if err != nil {
		return fmt.Errorf("failed to get list of databases: %w", err)
	}
	defer rows.Close()

	// next meaning there is a row, all we care about is if there is a row
	if !rows.Next() {
		klog.Infof("Creating database %s in postgres", dbname)
		_, err := db.Exec(`CREATE DATABASE "` + strings.ReplaceAll(dbname, `"`, "") + `"`)
		if err != nil {
			return fmt.Errorf("failed to create database %s: %w", dbname, err)
		}
	}

	return nil
}

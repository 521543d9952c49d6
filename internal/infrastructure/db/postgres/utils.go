package pgdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/arkade-os/tgpay/internal/infrastructure/db/postgres/sqlc/queries"
	"github.com/lib/pq"
	log "github.com/sirupsen/logrus"
)

const (
	driverName = "postgres"
	maxRetries = 5
	// invalid_catalog_name
	codeUnknownDatabase = "3D000"
)

// OpenDb connects to the database at dsn. With createIfMissing set, a database that does not
// exist yet is created first, this requires a url-formatted dsn.
func OpenDb(dsn string, createIfMissing bool) (*sql.DB, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres db: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = db.PingContext(ctx)
	var pqErr *pq.Error
	if err != nil && createIfMissing &&
		errors.As(err, &pqErr) && pqErr.Code == codeUnknownDatabase {
		if err := createDb(ctx, dsn); err != nil {
			return nil, fmt.Errorf("failed to create db: %v", err)
		}
		err = db.PingContext(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to establish connection with db: %v", err)
	}
	return db, nil
}

func createDb(ctx context.Context, dsn string) error {
	dbUrl, err := url.Parse(dsn)
	if err != nil || (dbUrl.Scheme != "postgres" && dbUrl.Scheme != "postgresql") {
		return fmt.Errorf("dsn must be a postgres:// url")
	}
	name := strings.TrimPrefix(dbUrl.Path, "/")
	if len(name) <= 0 {
		return fmt.Errorf("missing database name in dsn")
	}

	// Connect to the server default database to create the missing one.
	dbUrl.Path = ""
	serverDb, err := sql.Open(driverName, dbUrl.String())
	if err != nil {
		return err
	}
	// nolint
	defer serverDb.Close()

	log.Infof("creating postgres database %s", name)
	_, err = serverDb.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(name))
	return err
}

func execTx(
	ctx context.Context, db *sql.DB, txBody func(*queries.Queries) error,
) error {
	var lastErr error
	for range maxRetries {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		qtx := queries.New(db).WithTx(tx)

		if err := txBody(qtx); err != nil {
			//nolint:all
			tx.Rollback()

			if isConflictError(err) {
				lastErr = err
				time.Sleep(100 * time.Millisecond)
				continue
			}
			return err
		}

		if err := tx.Commit(); err != nil {
			if isConflictError(err) {
				lastErr = err
				time.Sleep(100 * time.Millisecond)
				continue
			}
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil
	}

	return lastErr
}

func isConflictError(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	// 40001: serialization_failure, 40P01: deadlock_detected.
	return pqErr.Code == "40001" || pqErr.Code == "40P01"
}

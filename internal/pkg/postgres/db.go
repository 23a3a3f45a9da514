package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sixtyscan/voiceapi/internal/pkg/persistence"
)

// historyLimit caps the history query
const historyLimit = 50

// DB provides operations with postgresql
type DB struct {
	pool *pgxpool.Pool
}

//NewDB creates DB instance
func NewDB(pool *pgxpool.Pool) (*DB, error) {
	res := &DB{pool: pool}
	return res, nil
}

// InsertTestResult inserts one screening outcome.
// The store assigns id and created
func (db *DB) InsertTestResult(ctx context.Context, item *persistence.TestRecord) error {
	err := db.pool.QueryRow(ctx, `INSERT INTO test_results(user_email, percent, label)
	VALUES($1, $2, $3) RETURNING id, created`, item.UserEmail, item.Percent, item.Label).
		Scan(&item.ID, &item.Created)
	if err != nil {
		return fmt.Errorf("can't insert test result: %w", err)
	}
	return nil
}

// LoadTestResults loads up to 50 records for the user, newest first
func (db *DB) LoadTestResults(ctx context.Context, userEmail string) ([]*persistence.TestRecord, error) {
	rows, err := db.pool.Query(ctx, `SELECT id, created, percent, label FROM test_results
		WHERE user_email = $1 ORDER BY created DESC LIMIT $2`, userEmail, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("can't load test results: %w", err)
	}
	defer rows.Close()

	res := []*persistence.TestRecord{}
	for rows.Next() {
		r := &persistence.TestRecord{UserEmail: userEmail}
		if err := rows.Scan(&r.ID, &r.Created, &r.Percent, &r.Label); err != nil {
			return nil, fmt.Errorf("can't scan test result: %w", err)
		}
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("can't read test results: %w", err)
	}
	return res, nil
}

// LoadTestResult loads one record of the user by ID
func (db *DB) LoadTestResult(ctx context.Context, userEmail string, id int64) (*persistence.TestRecord, error) {
	r := &persistence.TestRecord{UserEmail: userEmail}
	err := db.pool.QueryRow(ctx, `SELECT id, created, percent, label FROM test_results
		WHERE user_email = $1 AND id = $2`, userEmail, id).
		Scan(&r.ID, &r.Created, &r.Percent, &r.Label)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("can't load test result: %w", err)
	}
	return r, nil
}

// Live returns no error if db is reachable and initialized
func (db *DB) Live(ctx context.Context) error {
	var exists bool
	if err := db.pool.QueryRow(ctx, `SELECT EXISTS (SELECT FROM pg_tables WHERE tablename = 'test_results')`).Scan(&exists); err != nil {
		return fmt.Errorf("can't check table: %w", err)
	}
	if !exists {
		return fmt.Errorf("no migration done")
	}
	return nil
}

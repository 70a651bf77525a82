package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/DavidHuie/gomigrate"
	_ "github.com/lib/pq"
	"github.com/safetyserv/safetyserv/metrics/dbmetrics"
)

type PostgresStorageConnectionConfig struct {
	Uri          string
	MaxOpenConns int
	MaxIdleConns int
}

type PostgresStorageConfig struct {
	// Read/Write Database connection config
	RWDatabase *PostgresStorageConnectionConfig
	// Readonly Database connection config. If nil, the RW database will be used for RO operations
	RODatabase *PostgresStorageConnectionConfig
	// File path to the directory containing migrations
	MigrationsPath string
}

type PostgresStorage struct {
	db         *sql.DB
	readonlyDb *sql.DB

	evaluationSelect         *sql.Stmt
	evaluationSelectByDigest *sql.Stmt
	evaluationUpsert         *sql.Stmt
	evaluationPrune          *sql.Stmt
	documentSelect           *sql.Stmt
	documentDelete           *sql.Stmt

	//documentUpsert *sql.Stmt // We do the upsert manually to enter a transaction instead
}

func NewPostgresStorage(config *PostgresStorageConfig) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", config.RWDatabase.Uri)
	if err != nil {
		return nil, errors.Join(errors.New("failed to open read/write database"), err)
	}
	db.SetMaxOpenConns(config.RWDatabase.MaxOpenConns)
	db.SetMaxIdleConns(config.RWDatabase.MaxIdleConns)

	readonlyDb := db
	if config.RODatabase != nil {
		readonlyDb, err = sql.Open("postgres", config.RODatabase.Uri)
		if err != nil {
			return nil, errors.Join(errors.New("failed to open read-only database"), err)
		}
		readonlyDb.SetMaxOpenConns(config.RODatabase.MaxOpenConns)
		readonlyDb.SetMaxIdleConns(config.RODatabase.MaxIdleConns)
	}

	s := &PostgresStorage{
		db:         db,
		readonlyDb: readonlyDb,
	}
	if err = s.prepare(config.MigrationsPath); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to run migrations with path '%s'", config.MigrationsPath), err)
	}
	return s, nil
}

func (s *PostgresStorage) prepare(migrationsDir string) error {
	// Migrate first
	if migrator, err := gomigrate.NewMigratorWithLogger(s.db, gomigrate.Postgres{}, migrationsDir, log.Default()); err != nil {
		return err
	} else {
		if err = migrator.Migrate(); err != nil {
			return err
		}
	}

	// Now set up all the prepared statements
	var err error
	if s.evaluationSelect, err = s.readonlyDb.Prepare("SELECT id, digest, request_length, response_length, harm_score, verdict, strategy, backend, created_ts FROM evaluations WHERE id = $1;"); err != nil {
		return err
	}
	if s.evaluationSelectByDigest, err = s.readonlyDb.Prepare("SELECT id, digest, request_length, response_length, harm_score, verdict, strategy, backend, created_ts FROM evaluations WHERE digest = $1 ORDER BY created_ts DESC LIMIT 1;"); err != nil {
		return err
	}
	if s.evaluationUpsert, err = s.db.Prepare("INSERT INTO evaluations (id, digest, request_length, response_length, harm_score, verdict, strategy, backend, created_ts) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) ON CONFLICT (id) DO UPDATE SET digest = $2, request_length = $3, response_length = $4, harm_score = $5, verdict = $6, strategy = $7, backend = $8, created_ts = $9;"); err != nil {
		return err
	}
	if s.evaluationPrune, err = s.db.Prepare("DELETE FROM evaluations WHERE created_ts < $1;"); err != nil {
		return err
	}
	if s.documentSelect, err = s.readonlyDb.Prepare("SELECT collection, document_id, content, embedding FROM documents WHERE collection = $1 ORDER BY document_id;"); err != nil {
		return err
	}
	if s.documentDelete, err = s.db.Prepare("DELETE FROM documents WHERE collection = $1;"); err != nil {
		return err
	}

	return nil
}

func (s *PostgresStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return err
	}
	if s.readonlyDb != nil && s.readonlyDb != s.db {
		if err := s.readonlyDb.Close(); err != nil {
			return err
		}
	}
	return nil
}

func scanEvaluation(row *sql.Row) (*StoredEvaluation, error) {
	evaluation := &StoredEvaluation{}
	err := row.Scan(&evaluation.Id, &evaluation.Digest, &evaluation.RequestLength, &evaluation.ResponseLength, &evaluation.HarmScore, &evaluation.Verdict, &evaluation.Strategy, &evaluation.Backend, &evaluation.CreatedAtMillis)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return evaluation, nil
}

func (s *PostgresStorage) GetEvaluation(ctx context.Context, id string) (*StoredEvaluation, error) {
	t := dbmetrics.StartSelfDatabaseTimer("GetEvaluation")
	defer t.ObserveDuration()

	return scanEvaluation(s.evaluationSelect.QueryRowContext(ctx, id))
}

func (s *PostgresStorage) GetEvaluationByDigest(ctx context.Context, digest string) (*StoredEvaluation, error) {
	t := dbmetrics.StartSelfDatabaseTimer("GetEvaluationByDigest")
	defer t.ObserveDuration()

	return scanEvaluation(s.evaluationSelectByDigest.QueryRowContext(ctx, digest))
}

func (s *PostgresStorage) UpsertEvaluation(ctx context.Context, evaluation *StoredEvaluation) error {
	t := dbmetrics.StartSelfDatabaseTimer("UpsertEvaluation")
	defer t.ObserveDuration()

	_, err := s.evaluationUpsert.ExecContext(ctx, evaluation.Id, evaluation.Digest, evaluation.RequestLength, evaluation.ResponseLength, evaluation.HarmScore, evaluation.Verdict, evaluation.Strategy, evaluation.Backend, evaluation.CreatedAtMillis)
	return err
}

func (s *PostgresStorage) PruneEvaluations(ctx context.Context, beforeMillis int64) (int64, error) {
	t := dbmetrics.StartSelfDatabaseTimer("PruneEvaluations")
	defer t.ObserveDuration()

	res, err := s.evaluationPrune.ExecContext(ctx, beforeMillis)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *PostgresStorage) UpsertDocuments(ctx context.Context, documents []*StoredDocument) error {
	t := dbmetrics.StartSelfDatabaseTimer("UpsertDocuments")
	defer t.ObserveDuration()

	txn, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer txn.Rollback()

	for _, doc := range documents {
		_, err = txn.ExecContext(ctx, "INSERT INTO documents (collection, document_id, content, embedding) VALUES ($1, $2, $3, $4) ON CONFLICT (collection, document_id) DO UPDATE SET content = $3, embedding = $4;", doc.Collection, doc.DocumentId, doc.Content, doc.Embedding)
		if err != nil {
			return err
		}
	}

	return txn.Commit()
}

func (s *PostgresStorage) GetDocuments(ctx context.Context, collection string) ([]*StoredDocument, error) {
	t := dbmetrics.StartSelfDatabaseTimer("GetDocuments")
	defer t.ObserveDuration()

	rows, err := s.documentSelect.QueryContext(ctx, collection)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return make([]*StoredDocument, 0), nil
		}
		return nil, err
	}
	defer rows.Close()

	docs := make([]*StoredDocument, 0)
	for rows.Next() {
		doc := &StoredDocument{}
		if err = rows.Scan(&doc.Collection, &doc.DocumentId, &doc.Content, &doc.Embedding); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *PostgresStorage) DeleteCollection(ctx context.Context, collection string) error {
	t := dbmetrics.StartSelfDatabaseTimer("DeleteCollection")
	defer t.ObserveDuration()

	_, err := s.documentDelete.ExecContext(ctx, collection)
	return err
}

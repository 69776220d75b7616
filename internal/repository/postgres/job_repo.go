package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lingopipe/lingopipe/internal/domain"
	"github.com/lingopipe/lingopipe/internal/repository"
)

var _ repository.JobRepository = (*pgJobRepo)(nil)

type pgJobRepo struct {
	pool *pgxpool.Pool
}

// NewJobRepository creates a PostgreSQL-backed translation job store.
func NewJobRepository(pool *pgxpool.Pool) repository.JobRepository {
	return &pgJobRepo{pool: pool}
}

func (r *pgJobRepo) Create(ctx context.Context, job *domain.TranslationJob) error {
	langs, err := json.Marshal(job.TargetLanguages)
	if err != nil {
		return fmt.Errorf("postgres: marshal target languages: %w", err)
	}
	fields, err := json.Marshal(job.Fields)
	if err != nil {
		return fmt.Errorf("postgres: marshal fields: %w", err)
	}

	query := `
		INSERT INTO translation_jobs
			(job_id, status, source_language, target_languages, fields,
			 requested_by, item_id, item_path, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	now := time.Now().UTC()
	_, err = r.pool.Exec(ctx, query,
		job.JobID, job.Status, job.SourceLanguage, langs, fields,
		job.RequestedBy, job.ItemID, job.ItemPath, now,
	)
	if err != nil {
		return fmt.Errorf("postgres: create job: %w", err)
	}
	job.CreatedAt = now
	return nil
}

func (r *pgJobRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.TranslationJob, error) {
	query := `
		SELECT job_id, status, source_language, target_languages, fields,
		       requested_by, item_id, item_path, results, error,
		       created_at, completed_at
		FROM translation_jobs
		WHERE job_id = $1`

	job, err := scanJob(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("postgres: get job by id: %w", err)
	}
	return job, nil
}

func (r *pgJobRepo) SetTerminal(ctx context.Context, id uuid.UUID, result *domain.TerminalResult) error {
	var results []byte
	if result.Results != nil {
		var err error
		results, err = json.Marshal(result.Results)
		if err != nil {
			return fmt.Errorf("postgres: marshal results: %w", err)
		}
	}

	query := `
		UPDATE translation_jobs
		SET status = $1, results = $2, error = NULLIF($3, ''), completed_at = $4
		WHERE job_id = $5`

	tag, err := r.pool.Exec(ctx, query,
		result.Status, results, result.Error, result.CompletedAt.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("postgres: set terminal state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

func (r *pgJobRepo) FindStalePending(ctx context.Context, cutoff time.Time, limit int) ([]*domain.TranslationJob, error) {
	query := `
		SELECT job_id, status, source_language, target_languages, fields,
		       requested_by, item_id, item_path, results, error,
		       created_at, completed_at
		FROM translation_jobs
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at
		LIMIT $3`

	rows, err := r.pool.Query(ctx, query, domain.StatusPending, cutoff.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: find stale pending: %w", err)
	}
	defer rows.Close()

	var jobs []*domain.TranslationJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan stale pending: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: find stale pending: %w", err)
	}
	return jobs, nil
}

// scanJob decodes one translation_jobs row, unpacking the jsonb columns.
func scanJob(row pgx.Row) (*domain.TranslationJob, error) {
	var (
		job     domain.TranslationJob
		langs   []byte
		fields  []byte
		results []byte
		errMsg  *string
		doneAt  *time.Time
	)

	err := row.Scan(
		&job.JobID, &job.Status, &job.SourceLanguage, &langs, &fields,
		&job.RequestedBy, &job.ItemID, &job.ItemPath, &results, &errMsg,
		&job.CreatedAt, &doneAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(langs, &job.TargetLanguages); err != nil {
		return nil, fmt.Errorf("decode target languages: %w", err)
	}
	if err := json.Unmarshal(fields, &job.Fields); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	if results != nil {
		if err := json.Unmarshal(results, &job.Results); err != nil {
			return nil, fmt.Errorf("decode results: %w", err)
		}
	}
	if errMsg != nil {
		job.Error = *errMsg
	}
	job.CompletedAt = doneAt
	return &job, nil
}

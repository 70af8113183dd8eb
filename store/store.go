// Package store persists scrape configurations and saved opportunity
// records in SQLite. It is the only stateful layer in the module; the
// extraction pipeline itself keeps everything in memory.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	oppex "github.com/kmezzour/oppex"
	"github.com/kmezzour/oppex/scraper"
)

// Store manages scrape configs and saved opportunities in one SQLite file.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS scrape_configs (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		url TEXT NOT NULL,
		item_selector TEXT,
		fields TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS opportunities (
		id TEXT PRIMARY KEY,
		title TEXT,
		company TEXT,
		location TEXT,
		job_type TEXT,
		salary_range TEXT,
		description TEXT,
		experience_level TEXT,
		remote_work INTEGER DEFAULT 0,
		tags TEXT,
		application_deadline TEXT,
		source_url TEXT NOT NULL,
		scraped_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateConfig inserts a new scrape config. Field mappings are serialized
// as a JSON column; SQLite never needs to query inside them.
func (s *Store) CreateConfig(cfg scraper.ScrapeConfig) error {
	fieldsJSON, err := json.Marshal(cfg.Fields)
	if err != nil {
		return fmt.Errorf("failed to marshal fields: %w", err)
	}

	query := `
		INSERT INTO scrape_configs (id, name, url, item_selector, fields, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.Exec(query,
		cfg.ID, cfg.Name, cfg.URL, cfg.ItemSelector, string(fieldsJSON),
		cfg.CreatedAt.Format(time.RFC3339), cfg.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert config: %w", err)
	}
	return nil
}

// GetConfig retrieves a scrape config by ID.
func (s *Store) GetConfig(id string) (*scraper.ScrapeConfig, error) {
	query := `
		SELECT id, name, url, item_selector, fields, created_at, updated_at
		FROM scrape_configs
		WHERE id = ?
	`

	var cfg scraper.ScrapeConfig
	var itemSelector sql.NullString
	var fieldsJSON, createdAt, updatedAt string

	err := s.db.QueryRow(query, id).Scan(
		&cfg.ID, &cfg.Name, &cfg.URL, &itemSelector, &fieldsJSON, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("config not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query config: %w", err)
	}

	if itemSelector.Valid {
		cfg.ItemSelector = itemSelector.String
	}
	if err := json.Unmarshal([]byte(fieldsJSON), &cfg.Fields); err != nil {
		return nil, fmt.Errorf("failed to unmarshal fields: %w", err)
	}
	cfg.CreatedAt = parseTime(createdAt)
	cfg.UpdatedAt = parseTime(updatedAt)

	return &cfg, nil
}

// ListConfigs lists all scrape configs, newest first.
func (s *Store) ListConfigs() ([]scraper.ScrapeConfig, error) {
	query := `
		SELECT id, name, url, item_selector, fields, created_at, updated_at
		FROM scrape_configs
		ORDER BY created_at DESC
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query configs: %w", err)
	}
	defer rows.Close()

	var configs []scraper.ScrapeConfig
	for rows.Next() {
		var cfg scraper.ScrapeConfig
		var itemSelector sql.NullString
		var fieldsJSON, createdAt, updatedAt string

		if err := rows.Scan(&cfg.ID, &cfg.Name, &cfg.URL, &itemSelector, &fieldsJSON, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan config: %w", err)
		}
		if itemSelector.Valid {
			cfg.ItemSelector = itemSelector.String
		}
		if err := json.Unmarshal([]byte(fieldsJSON), &cfg.Fields); err != nil {
			return nil, fmt.Errorf("failed to unmarshal fields: %w", err)
		}
		cfg.CreatedAt = parseTime(createdAt)
		cfg.UpdatedAt = parseTime(updatedAt)

		configs = append(configs, cfg)
	}

	return configs, rows.Err()
}

// UpdateConfig replaces a config's mutable columns and bumps updated_at.
func (s *Store) UpdateConfig(cfg scraper.ScrapeConfig) error {
	fieldsJSON, err := json.Marshal(cfg.Fields)
	if err != nil {
		return fmt.Errorf("failed to marshal fields: %w", err)
	}

	query := `
		UPDATE scrape_configs
		SET name = ?, url = ?, item_selector = ?, fields = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := s.db.Exec(query,
		cfg.Name, cfg.URL, cfg.ItemSelector, string(fieldsJSON),
		time.Now().Format(time.RFC3339), cfg.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update config: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("config not found")
	}
	return nil
}

// DeleteConfig removes a config by ID.
func (s *Store) DeleteConfig(id string) error {
	result, err := s.db.Exec("DELETE FROM scrape_configs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete config: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("config not found")
	}
	return nil
}

// Save persists one opportunity record, satisfying oppex.OpportunitySaver.
// A record with an already-saved ID is replaced, not duplicated.
func (s *Store) Save(ctx context.Context, job oppex.JobData) error {
	remote := 0
	if job.RemoteWork {
		remote = 1
	}

	query := `
		INSERT OR REPLACE INTO opportunities (
			id, title, company, location, job_type, salary_range,
			description, experience_level, remote_work, tags,
			application_deadline, source_url, scraped_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		job.ID, job.Title, job.Company, job.Location, job.JobType, job.SalaryRange,
		job.Description, job.ExperienceLevel, remote, strings.Join(job.Tags, ","),
		job.ApplicationDeadline, job.SourceURL, job.ScrapedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save opportunity: %w", err)
	}
	return nil
}

// ListOpportunities returns saved records, newest scrape first.
func (s *Store) ListOpportunities(ctx context.Context) ([]oppex.JobData, error) {
	query := `
		SELECT id, title, company, location, job_type, salary_range,
		       description, experience_level, remote_work, tags,
		       application_deadline, source_url, scraped_at
		FROM opportunities
		ORDER BY scraped_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query opportunities: %w", err)
	}
	defer rows.Close()

	var jobs []oppex.JobData
	for rows.Next() {
		var job oppex.JobData
		var remote int
		var tags, scrapedAt string

		if err := rows.Scan(
			&job.ID, &job.Title, &job.Company, &job.Location, &job.JobType, &job.SalaryRange,
			&job.Description, &job.ExperienceLevel, &remote, &tags,
			&job.ApplicationDeadline, &job.SourceURL, &scrapedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan opportunity: %w", err)
		}

		job.RemoteWork = remote != 0
		if tags != "" {
			job.Tags = strings.Split(tags, ",")
		}
		job.ScrapedAt = parseTime(scrapedAt)

		jobs = append(jobs, job)
	}

	return jobs, rows.Err()
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

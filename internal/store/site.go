// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"storesmith/internal/models"
)

// ErrNotPending is returned when a terminal-state transition targets a
// record that is not pending. Completed and errored sites are immutable.
var ErrNotPending = errors.New("site is not in pending state")

// SiteStore handles all site-record database operations.
type SiteStore struct {
	db *sql.DB
}

// NewSiteStore creates a new SiteStore with the given database connection.
func NewSiteStore(db *sql.DB) *SiteStore {
	return &SiteStore{db: db}
}

const siteColumns = `id, product_type, design_style, reference_url, mode, status,
	       html_content, explanation, key_points, color_palette,
	       error_message, created_at, updated_at, completed_at`

// Create inserts a new pending site record and returns it with the
// generated ID and timestamps.
func (s *SiteStore) Create(productType, designStyle string, referenceURL *string, mode models.ReferenceMode) (*models.Site, error) {
	row := s.db.QueryRow(`
		INSERT INTO sites (product_type, design_style, reference_url, mode, status)
		VALUES ($1, $2, $3, $4, 'pending')
		RETURNING `+siteColumns+`
	`, productType, designStyle, referenceURL, mode)

	site, err := scanSite(row)
	if err != nil {
		return nil, fmt.Errorf("create site: %w", err)
	}
	return site, nil
}

// FindByID retrieves a site by its UUID. Returns nil if not found.
func (s *SiteStore) FindByID(id uuid.UUID) (*models.Site, error) {
	row := s.db.QueryRow(`SELECT `+siteColumns+` FROM sites WHERE id = $1`, id)

	site, err := scanSite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find site by id: %w", err)
	}
	return site, nil
}

// ListCompleted returns all completed sites, newest first.
func (s *SiteStore) ListCompleted() ([]models.Site, error) {
	rows, err := s.db.Query(`
		SELECT ` + siteColumns + `
		FROM sites
		WHERE status = 'completed'
		ORDER BY completed_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list completed sites: %w", err)
	}
	defer rows.Close()

	var sites []models.Site
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, fmt.Errorf("scan site: %w", err)
		}
		sites = append(sites, *site)
	}
	return sites, rows.Err()
}

// MarkCompleted transitions a pending site to completed with its generated
// markup and design rationale. Returns ErrNotPending if the record is
// missing or already terminal.
func (s *SiteStore) MarkCompleted(id uuid.UUID, html string, md models.Metadata) error {
	keyPoints, err := json.Marshal(md.KeyPoints)
	if err != nil {
		return fmt.Errorf("marshal key points: %w", err)
	}
	palette, err := json.Marshal(md.ColorPalette)
	if err != nil {
		return fmt.Errorf("marshal color palette: %w", err)
	}

	result, err := s.db.Exec(`
		UPDATE sites
		SET status = 'completed', html_content = $2, explanation = $3,
		    key_points = $4, color_palette = $5,
		    updated_at = now(), completed_at = now()
		WHERE id = $1 AND status = 'pending'
	`, id, html, md.Explanation, keyPoints, palette)
	if err != nil {
		return fmt.Errorf("mark site completed: %w", err)
	}
	return checkPendingUpdate(result)
}

// MarkError transitions a pending site to error with a human-readable
// message. Returns ErrNotPending if the record is missing or already
// terminal.
func (s *SiteStore) MarkError(id uuid.UUID, message string) error {
	result, err := s.db.Exec(`
		UPDATE sites
		SET status = 'error', error_message = $2,
		    updated_at = now(), completed_at = now()
		WHERE id = $1 AND status = 'pending'
	`, id, message)
	if err != nil {
		return fmt.Errorf("mark site errored: %w", err)
	}
	return checkPendingUpdate(result)
}

// Delete removes a site record. Returns false if no record existed.
func (s *SiteStore) Delete(id uuid.UUID) (bool, error) {
	result, err := s.db.Exec(`DELETE FROM sites WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete site: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete site rows affected: %w", err)
	}
	return n > 0, nil
}

// CountByStatus returns the number of sites in the given status.
func (s *SiteStore) CountByStatus(status models.SiteStatus) (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM sites WHERE status = $1`, status).Scan(&n); err != nil {
		return 0, fmt.Errorf("count sites by status: %w", err)
	}
	return n, nil
}

func checkPendingUpdate(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotPending
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSite(row scanner) (*models.Site, error) {
	site := &models.Site{}
	var keyPoints, palette []byte
	if err := row.Scan(
		&site.ID, &site.ProductType, &site.DesignStyle, &site.ReferenceURL,
		&site.Mode, &site.Status, &site.HTMLContent, &site.Explanation,
		&keyPoints, &palette, &site.ErrorMessage,
		&site.CreatedAt, &site.UpdatedAt, &site.CompletedAt,
	); err != nil {
		return nil, err
	}

	if len(keyPoints) > 0 {
		if err := json.Unmarshal(keyPoints, &site.KeyPoints); err != nil {
			return nil, fmt.Errorf("unmarshal key points: %w", err)
		}
	}
	if len(palette) > 0 {
		if err := json.Unmarshal(palette, &site.ColorPalette); err != nil {
			return nil, fmt.Errorf("unmarshal color palette: %w", err)
		}
	}
	return site, nil
}

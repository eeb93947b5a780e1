// Package sqlite provides a SQLite implementation of the RelationalDB interface.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vistoria/vistoria-core/internal/domain/entities"
	"github.com/vistoria/vistoria-core/internal/domain/ports"
	"github.com/vistoria/vistoria-core/internal/infrastructure/config"
)

// timeNow returns the current time (can be mocked in tests).
var timeNow = time.Now

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repository implements ports.RelationalDB using SQLite.
type Repository struct {
	db   *sql.DB
	q    querier
	tx   *sql.Tx
	path string
}

var _ ports.RelationalDB = (*Repository)(nil)

// NewRepository creates a new SQLite repository.
func NewRepository(cfg config.DatabaseConfig) (*Repository, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// Every connection to :memory: is a separate database
	if cfg.Path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Enable foreign keys for referential integrity
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	// Enable WAL mode for better concurrent read/write performance
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Set busy timeout to avoid "database is locked" errors
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	return &Repository{
		db:   db,
		q:    db,
		path: cfg.Path,
	}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.tx != nil {
		return errors.New("close called inside a transaction")
	}
	return r.db.Close()
}

// Path returns the database file path.
func (r *Repository) Path() string {
	return r.path
}

// EnsureSchema creates the database schema if it doesn't exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	schema := `
	-- Inspection aggregate (owned by the inspection editor)
	CREATE TABLE IF NOT EXISTS inspections (
		id TEXT PRIMARY KEY,
		number TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL DEFAULT '',
		template_id TEXT NOT NULL DEFAULT '',
		organization_id TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		context_json TEXT,
		data_json TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		signed_at TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_inspections_created ON inspections(created_at);

	CREATE TABLE IF NOT EXISTS inspection_items (
		id TEXT PRIMARY KEY,
		inspection_id TEXT NOT NULL REFERENCES inspections(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		path TEXT NOT NULL,
		label TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL DEFAULT '',
		value TEXT,
		notes TEXT,
		require_photo INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		UNIQUE(inspection_id, path)
	);

	CREATE TABLE IF NOT EXISTS photos (
		id TEXT PRIMARY KEY,
		inspection_id TEXT NOT NULL REFERENCES inspections(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		item_path TEXT NOT NULL DEFAULT '',
		file_ref TEXT NOT NULL,
		filename TEXT NOT NULL DEFAULT '',
		mime_type TEXT NOT NULL DEFAULT '',
		file_size INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_photos_inspection ON photos(inspection_id);

	CREATE TABLE IF NOT EXISTS signatures (
		id TEXT PRIMARY KEY,
		inspection_id TEXT NOT NULL REFERENCES inspections(id) ON DELETE CASCADE,
		role TEXT NOT NULL,
		signed_by_name TEXT NOT NULL,
		signed_by_email TEXT NOT NULL DEFAULT '',
		signed_at TIMESTAMP NOT NULL,
		file_ref TEXT NOT NULL DEFAULT '',
		user_agent TEXT NOT NULL DEFAULT '',
		ip_address TEXT NOT NULL DEFAULT '',
		geo_json TEXT,
		created_at TIMESTAMP NOT NULL,
		UNIQUE(inspection_id, role)
	);

	-- Integrity records are append-only and never reference public links
	CREATE TABLE IF NOT EXISTS integrity_records (
		id TEXT PRIMARY KEY,
		inspection_id TEXT NOT NULL,
		file_ref TEXT NOT NULL,
		file_cid TEXT NOT NULL DEFAULT '',
		filename TEXT NOT NULL DEFAULT '',
		canonical_json TEXT NOT NULL,
		sha256 TEXT NOT NULL,
		schema_version TEXT NOT NULL,
		file_size INTEGER NOT NULL DEFAULT 0,
		generated_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_integrity_records_latest ON integrity_records(inspection_id, generated_at);

	CREATE TABLE IF NOT EXISTS public_links (
		id TEXT PRIMARY KEY,
		inspection_id TEXT NOT NULL,
		token TEXT NOT NULL UNIQUE,
		kind TEXT NOT NULL,
		expires_at TIMESTAMP NOT NULL,
		is_revoked INTEGER NOT NULL DEFAULT 0,
		views_count INTEGER NOT NULL DEFAULT 0,
		max_views INTEGER,
		created_by TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_public_links_inspection ON public_links(inspection_id);
	`

	_, err := r.q.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// WithTx runs fn inside a transaction. Nested calls join the outer transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(tx ports.RelationalDB) error) error {
	return r.atomic(ctx, func(repo *Repository) error { return fn(repo) })
}

func (r *Repository) atomic(ctx context.Context, fn func(repo *Repository) error) error {
	if r.tx != nil {
		return fn(r)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if err := fn(&Repository{db: r.db, q: tx, tx: tx, path: r.path}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rolling back: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Inspection methods.

// SaveInspection inserts or replaces an inspection with its items, photos and signatures.
func (r *Repository) SaveInspection(ctx context.Context, insp *entities.Inspection) error {
	return r.atomic(ctx, func(repo *Repository) error {
		query := `
			INSERT INTO inspections (id, number, title, template_id, organization_id, status,
				context_json, data_json, created_at, updated_at, signed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				number = excluded.number,
				title = excluded.title,
				template_id = excluded.template_id,
				organization_id = excluded.organization_id,
				status = excluded.status,
				context_json = excluded.context_json,
				data_json = excluded.data_json,
				created_at = excluded.created_at,
				updated_at = excluded.updated_at,
				signed_at = excluded.signed_at
		`
		_, err := repo.q.ExecContext(ctx, query,
			insp.ID,
			insp.Number,
			insp.Title,
			insp.TemplateID,
			insp.OrganizationID,
			string(insp.Status),
			nullRaw(insp.Context),
			nullRaw(insp.Data),
			insp.CreatedAt.UTC(),
			insp.UpdatedAt.UTC(),
			nullTime(insp.SignedAt),
		)
		if err != nil {
			return fmt.Errorf("saving inspection: %w", err)
		}

		for _, table := range []string{"inspection_items", "photos", "signatures"} {
			if _, err := repo.q.ExecContext(ctx, "DELETE FROM "+table+" WHERE inspection_id = ?", insp.ID); err != nil {
				return fmt.Errorf("clearing %s: %w", table, err)
			}
		}

		for i := range insp.Items {
			if err := repo.insertItem(ctx, insp.ID, i, &insp.Items[i]); err != nil {
				return err
			}
		}
		for i := range insp.Photos {
			if err := repo.insertPhoto(ctx, insp.ID, i, &insp.Photos[i]); err != nil {
				return err
			}
		}
		for i := range insp.Signatures {
			sig := insp.Signatures[i]
			sig.InspectionID = insp.ID
			if err := repo.SaveSignature(ctx, &sig); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *Repository) insertItem(ctx context.Context, inspectionID string, position int, item *entities.InspectionItem) error {
	query := `
		INSERT INTO inspection_items (id, inspection_id, position, path, label, type, value, notes,
			require_photo, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	var value *string
	if item.Value != nil {
		v := string(*item.Value)
		value = &v
	}
	_, err := r.q.ExecContext(ctx, query,
		item.ID,
		inspectionID,
		position,
		item.Path,
		item.Label,
		item.Type,
		value,
		item.Notes,
		item.RequirePhoto,
		item.CreatedAt.UTC(),
		item.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving item %q: %w", item.Path, err)
	}
	return nil
}

func (r *Repository) insertPhoto(ctx context.Context, inspectionID string, position int, photo *entities.Photo) error {
	query := `
		INSERT INTO photos (id, inspection_id, position, item_path, file_ref, filename, mime_type, file_size, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.q.ExecContext(ctx, query,
		photo.ID,
		inspectionID,
		position,
		photo.ItemPath,
		photo.FileRef,
		photo.Filename,
		photo.MimeType,
		photo.FileSize,
		photo.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving photo %s: %w", photo.ID, err)
	}
	return nil
}

// FindInspection loads the full aggregate. Returns nil if it does not exist.
func (r *Repository) FindInspection(ctx context.Context, id string) (*entities.Inspection, error) {
	query := `
		SELECT id, number, title, template_id, organization_id, status, context_json, data_json,
			created_at, updated_at, signed_at
		FROM inspections
		WHERE id = ?
	`
	insp, err := scanInspection(r.q.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning inspection: %w", err)
	}

	if insp.Items, err = r.findItems(ctx, id); err != nil {
		return nil, err
	}
	if insp.Photos, err = r.findPhotos(ctx, id); err != nil {
		return nil, err
	}
	if insp.Signatures, err = r.findSignatures(ctx, id); err != nil {
		return nil, err
	}
	return insp, nil
}

// ListInspections lists inspections newest first, without children.
func (r *Repository) ListInspections(ctx context.Context, limit, offset int) ([]*entities.Inspection, error) {
	if limit <= 0 {
		limit = -1
	}
	query := `
		SELECT id, number, title, template_id, organization_id, status, context_json, data_json,
			created_at, updated_at, signed_at
		FROM inspections
		ORDER BY created_at DESC, id ASC
		LIMIT ? OFFSET ?
	`
	rows, err := r.q.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("querying inspections: %w", err)
	}
	defer rows.Close()

	result := make([]*entities.Inspection, 0)
	for rows.Next() {
		insp, err := scanInspection(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning inspection: %w", err)
		}
		result = append(result, insp)
	}
	return result, rows.Err()
}

// UpdateInspectionStatus sets the status and, when non-nil, signed_at.
func (r *Repository) UpdateInspectionStatus(ctx context.Context, id string, status entities.InspectionStatus, signedAt *time.Time) error {
	query := `
		UPDATE inspections
		SET status = ?, signed_at = COALESCE(?, signed_at), updated_at = ?
		WHERE id = ?
	`
	result, err := r.q.ExecContext(ctx, query, string(status), nullTime(signedAt), timeNow().UTC(), id)
	if err != nil {
		return fmt.Errorf("updating inspection status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("inspection not found: %s", id)
	}
	return nil
}

// UpdateItemValue changes the live answer of one item.
func (r *Repository) UpdateItemValue(ctx context.Context, inspectionID, path string, value *entities.ItemValue, notes *string) (bool, error) {
	var v *string
	if value != nil {
		s := string(*value)
		v = &s
	}

	found := false
	err := r.atomic(ctx, func(repo *Repository) error {
		now := timeNow().UTC()
		query := `
			UPDATE inspection_items
			SET value = ?, notes = COALESCE(?, notes), updated_at = ?
			WHERE inspection_id = ? AND path = ?
		`
		result, err := repo.q.ExecContext(ctx, query, v, notes, now, inspectionID, path)
		if err != nil {
			return fmt.Errorf("updating item: %w", err)
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return nil
		}
		found = true

		if _, err := repo.q.ExecContext(ctx, `UPDATE inspections SET updated_at = ? WHERE id = ?`, now, inspectionID); err != nil {
			return fmt.Errorf("touching inspection: %w", err)
		}
		return nil
	})
	return found, err
}

// SaveSignature inserts a signature.
func (r *Repository) SaveSignature(ctx context.Context, sig *entities.Signature) error {
	var geo *string
	if sig.Geo != nil {
		data, err := json.Marshal(sig.Geo)
		if err != nil {
			return fmt.Errorf("marshaling geo: %w", err)
		}
		s := string(data)
		geo = &s
	}

	query := `
		INSERT INTO signatures (id, inspection_id, role, signed_by_name, signed_by_email, signed_at,
			file_ref, user_agent, ip_address, geo_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.q.ExecContext(ctx, query,
		sig.ID,
		sig.InspectionID,
		string(sig.Role),
		sig.SignedByName,
		sig.SignedByEmail,
		sig.SignedAt.UTC(),
		sig.FileRef,
		sig.UserAgent,
		sig.IPAddress,
		geo,
		sig.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving signature: %w", err)
	}
	return nil
}

func (r *Repository) findItems(ctx context.Context, inspectionID string) ([]entities.InspectionItem, error) {
	query := `
		SELECT id, path, label, type, value, notes, require_photo, created_at, updated_at
		FROM inspection_items
		WHERE inspection_id = ?
		ORDER BY position ASC
	`
	rows, err := r.q.QueryContext(ctx, query, inspectionID)
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}
	defer rows.Close()

	result := make([]entities.InspectionItem, 0)
	for rows.Next() {
		var item entities.InspectionItem
		var value, notes sql.NullString
		if err := rows.Scan(
			&item.ID,
			&item.Path,
			&item.Label,
			&item.Type,
			&value,
			&notes,
			&item.RequirePhoto,
			&item.CreatedAt,
			&item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		if value.Valid {
			v := entities.ItemValue(value.String)
			item.Value = &v
		}
		if notes.Valid {
			n := notes.String
			item.Notes = &n
		}
		item.CreatedAt = item.CreatedAt.UTC()
		item.UpdatedAt = item.UpdatedAt.UTC()
		result = append(result, item)
	}
	return result, rows.Err()
}

func (r *Repository) findPhotos(ctx context.Context, inspectionID string) ([]entities.Photo, error) {
	query := `
		SELECT id, item_path, file_ref, filename, mime_type, file_size, created_at
		FROM photos
		WHERE inspection_id = ?
		ORDER BY position ASC
	`
	rows, err := r.q.QueryContext(ctx, query, inspectionID)
	if err != nil {
		return nil, fmt.Errorf("querying photos: %w", err)
	}
	defer rows.Close()

	result := make([]entities.Photo, 0)
	for rows.Next() {
		var p entities.Photo
		if err := rows.Scan(&p.ID, &p.ItemPath, &p.FileRef, &p.Filename, &p.MimeType, &p.FileSize, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning photo: %w", err)
		}
		p.CreatedAt = p.CreatedAt.UTC()
		result = append(result, p)
	}
	return result, rows.Err()
}

func (r *Repository) findSignatures(ctx context.Context, inspectionID string) ([]entities.Signature, error) {
	query := `
		SELECT id, inspection_id, role, signed_by_name, signed_by_email, signed_at, file_ref,
			user_agent, ip_address, geo_json, created_at
		FROM signatures
		WHERE inspection_id = ?
		ORDER BY signed_at ASC, id ASC
	`
	rows, err := r.q.QueryContext(ctx, query, inspectionID)
	if err != nil {
		return nil, fmt.Errorf("querying signatures: %w", err)
	}
	defer rows.Close()

	result := make([]entities.Signature, 0)
	for rows.Next() {
		var sig entities.Signature
		var role string
		var geo sql.NullString
		if err := rows.Scan(
			&sig.ID,
			&sig.InspectionID,
			&role,
			&sig.SignedByName,
			&sig.SignedByEmail,
			&sig.SignedAt,
			&sig.FileRef,
			&sig.UserAgent,
			&sig.IPAddress,
			&geo,
			&sig.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning signature: %w", err)
		}
		sig.Role = entities.SignatureRole(role)
		if geo.Valid {
			var point entities.GeoPoint
			if err := json.Unmarshal([]byte(geo.String), &point); err != nil {
				return nil, fmt.Errorf("parsing geo for signature %s: %w", sig.ID, err)
			}
			sig.Geo = &point
		}
		sig.SignedAt = sig.SignedAt.UTC()
		sig.CreatedAt = sig.CreatedAt.UTC()
		result = append(result, sig)
	}
	return result, rows.Err()
}

// Integrity record methods.

// SaveIntegrityRecord inserts a new record.
func (r *Repository) SaveIntegrityRecord(ctx context.Context, rec *entities.IntegrityRecord) error {
	query := `
		INSERT INTO integrity_records (id, inspection_id, file_ref, file_cid, filename, canonical_json,
			sha256, schema_version, file_size, generated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.q.ExecContext(ctx, query,
		rec.ID,
		rec.InspectionID,
		rec.FileRef,
		rec.FileCID,
		rec.Filename,
		rec.CanonicalJSON,
		rec.SHA256,
		rec.SchemaVersion,
		rec.FileSize,
		rec.GeneratedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving integrity record: %w", err)
	}
	return nil
}

const integrityRecordColumns = `id, inspection_id, file_ref, file_cid, filename, canonical_json,
	sha256, schema_version, file_size, generated_at`

// FindLatestIntegrityRecord returns the newest record by generated_at.
func (r *Repository) FindLatestIntegrityRecord(ctx context.Context, inspectionID string) (*entities.IntegrityRecord, error) {
	query := `
		SELECT ` + integrityRecordColumns + `
		FROM integrity_records
		WHERE inspection_id = ?
		ORDER BY generated_at DESC, rowid DESC
		LIMIT 1
	`
	rec, err := scanIntegrityRecord(r.q.QueryRowContext(ctx, query, inspectionID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning integrity record: %w", err)
	}
	return rec, nil
}

// ListIntegrityRecords lists all records for an inspection, newest first.
func (r *Repository) ListIntegrityRecords(ctx context.Context, inspectionID string) ([]entities.IntegrityRecord, error) {
	query := `
		SELECT ` + integrityRecordColumns + `
		FROM integrity_records
		WHERE inspection_id = ?
		ORDER BY generated_at DESC, rowid DESC
	`
	rows, err := r.q.QueryContext(ctx, query, inspectionID)
	if err != nil {
		return nil, fmt.Errorf("querying integrity records: %w", err)
	}
	defer rows.Close()

	result := make([]entities.IntegrityRecord, 0)
	for rows.Next() {
		rec, err := scanIntegrityRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning integrity record: %w", err)
		}
		result = append(result, *rec)
	}
	return result, rows.Err()
}

// Link methods.

// SaveLink inserts a new link.
func (r *Repository) SaveLink(ctx context.Context, link *entities.PublicLink) error {
	query := `
		INSERT INTO public_links (id, inspection_id, token, kind, expires_at, is_revoked, views_count,
			max_views, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.q.ExecContext(ctx, query,
		link.ID,
		link.InspectionID,
		link.Token,
		string(link.Kind),
		link.ExpiresAt.UTC(),
		link.IsRevoked,
		link.ViewsCount,
		link.MaxViews,
		link.CreatedBy,
		link.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving link: %w", err)
	}
	return nil
}

const linkColumns = `id, inspection_id, token, kind, expires_at, is_revoked, views_count, max_views,
	created_by, created_at`

// FindLinkByToken finds a link by its token. Returns nil if not found.
func (r *Repository) FindLinkByToken(ctx context.Context, token string) (*entities.PublicLink, error) {
	query := `SELECT ` + linkColumns + ` FROM public_links WHERE token = ?`
	link, err := scanLink(r.q.QueryRowContext(ctx, query, token))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning link: %w", err)
	}
	return link, nil
}

// ListLinks lists links for an inspection, newest first.
func (r *Repository) ListLinks(ctx context.Context, inspectionID string) ([]entities.PublicLink, error) {
	query := `
		SELECT ` + linkColumns + `
		FROM public_links
		WHERE inspection_id = ?
		ORDER BY created_at DESC, rowid DESC
	`
	rows, err := r.q.QueryContext(ctx, query, inspectionID)
	if err != nil {
		return nil, fmt.Errorf("querying links: %w", err)
	}
	defer rows.Close()

	result := make([]entities.PublicLink, 0)
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning link: %w", err)
		}
		result = append(result, *link)
	}
	return result, rows.Err()
}

// IncrementLinkViews adds one to views_count.
func (r *Repository) IncrementLinkViews(ctx context.Context, token string) error {
	query := `UPDATE public_links SET views_count = views_count + 1 WHERE token = ?`
	if _, err := r.q.ExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("incrementing link views: %w", err)
	}
	return nil
}

// RevokeLink marks a link revoked. Returns false if no link has token.
func (r *Repository) RevokeLink(ctx context.Context, token string) (bool, error) {
	query := `UPDATE public_links SET is_revoked = 1 WHERE token = ?`
	result, err := r.q.ExecContext(ctx, query, token)
	if err != nil {
		return false, fmt.Errorf("revoking link: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanInspection(s scanner) (*entities.Inspection, error) {
	var insp entities.Inspection
	var status string
	var contextJSON, dataJSON sql.NullString
	var signedAt sql.NullTime

	if err := s.Scan(
		&insp.ID,
		&insp.Number,
		&insp.Title,
		&insp.TemplateID,
		&insp.OrganizationID,
		&status,
		&contextJSON,
		&dataJSON,
		&insp.CreatedAt,
		&insp.UpdatedAt,
		&signedAt,
	); err != nil {
		return nil, err
	}

	insp.Status = entities.InspectionStatus(status)
	if contextJSON.Valid {
		insp.Context = json.RawMessage(contextJSON.String)
	}
	if dataJSON.Valid {
		insp.Data = json.RawMessage(dataJSON.String)
	}
	insp.CreatedAt = insp.CreatedAt.UTC()
	insp.UpdatedAt = insp.UpdatedAt.UTC()
	if signedAt.Valid {
		t := signedAt.Time.UTC()
		insp.SignedAt = &t
	}
	return &insp, nil
}

func scanIntegrityRecord(s scanner) (*entities.IntegrityRecord, error) {
	var rec entities.IntegrityRecord
	if err := s.Scan(
		&rec.ID,
		&rec.InspectionID,
		&rec.FileRef,
		&rec.FileCID,
		&rec.Filename,
		&rec.CanonicalJSON,
		&rec.SHA256,
		&rec.SchemaVersion,
		&rec.FileSize,
		&rec.GeneratedAt,
	); err != nil {
		return nil, err
	}
	rec.GeneratedAt = rec.GeneratedAt.UTC()
	return &rec, nil
}

func scanLink(s scanner) (*entities.PublicLink, error) {
	var link entities.PublicLink
	var kind string
	var maxViews sql.NullInt64

	if err := s.Scan(
		&link.ID,
		&link.InspectionID,
		&link.Token,
		&kind,
		&link.ExpiresAt,
		&link.IsRevoked,
		&link.ViewsCount,
		&maxViews,
		&link.CreatedBy,
		&link.CreatedAt,
	); err != nil {
		return nil, err
	}

	link.Kind = entities.LinkKind(kind)
	if maxViews.Valid {
		v := int(maxViews.Int64)
		link.MaxViews = &v
	}
	link.ExpiresAt = link.ExpiresAt.UTC()
	link.CreatedAt = link.CreatedAt.UTC()
	return &link, nil
}

func nullRaw(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

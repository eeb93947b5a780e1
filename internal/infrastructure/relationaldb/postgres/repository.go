// Package postgres provides a PostgreSQL implementation of the RelationalDB interface.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vistoria/vistoria-core/internal/domain/entities"
	"github.com/vistoria/vistoria-core/internal/domain/ports"
	"github.com/vistoria/vistoria-core/internal/infrastructure/config"
)

// timeNow returns the current time (can be mocked in tests).
var timeNow = time.Now

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository implements ports.RelationalDB using PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
	q    querier
	tx   pgx.Tx
}

var _ ports.RelationalDB = (*Repository)(nil)

// NewRepository connects to the database named by cfg.DSN.
func NewRepository(ctx context.Context, cfg config.DatabaseConfig) (*Repository, error) {
	if cfg.DSN == "" {
		return nil, errors.New("postgres dsn is required")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	return &Repository{pool: pool, q: pool}, nil
}

// Close closes the pool.
func (r *Repository) Close() error {
	if r.tx != nil {
		return errors.New("close called inside a transaction")
	}
	r.pool.Close()
	return nil
}

// EnsureSchema creates the database schema if it doesn't exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS inspections (
		id TEXT PRIMARY KEY,
		number TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL DEFAULT '',
		template_id TEXT NOT NULL DEFAULT '',
		organization_id TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		context_json TEXT,
		data_json TEXT,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		signed_at TIMESTAMPTZ
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
		require_photo BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
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
		file_size BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_photos_inspection ON photos(inspection_id);

	CREATE TABLE IF NOT EXISTS signatures (
		id TEXT PRIMARY KEY,
		inspection_id TEXT NOT NULL REFERENCES inspections(id) ON DELETE CASCADE,
		role TEXT NOT NULL,
		signed_by_name TEXT NOT NULL,
		signed_by_email TEXT NOT NULL DEFAULT '',
		signed_at TIMESTAMPTZ NOT NULL,
		file_ref TEXT NOT NULL DEFAULT '',
		user_agent TEXT NOT NULL DEFAULT '',
		ip_address TEXT NOT NULL DEFAULT '',
		geo_json TEXT,
		created_at TIMESTAMPTZ NOT NULL,
		UNIQUE(inspection_id, role)
	);

	CREATE TABLE IF NOT EXISTS integrity_records (
		id TEXT PRIMARY KEY,
		seq BIGSERIAL,
		inspection_id TEXT NOT NULL,
		file_ref TEXT NOT NULL,
		file_cid TEXT NOT NULL DEFAULT '',
		filename TEXT NOT NULL DEFAULT '',
		canonical_json TEXT NOT NULL,
		sha256 TEXT NOT NULL,
		schema_version TEXT NOT NULL,
		file_size BIGINT NOT NULL DEFAULT 0,
		generated_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_integrity_records_latest ON integrity_records(inspection_id, generated_at);

	CREATE TABLE IF NOT EXISTS public_links (
		id TEXT PRIMARY KEY,
		seq BIGSERIAL,
		inspection_id TEXT NOT NULL,
		token TEXT NOT NULL UNIQUE,
		kind TEXT NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL,
		is_revoked BOOLEAN NOT NULL DEFAULT FALSE,
		views_count INTEGER NOT NULL DEFAULT 0,
		max_views INTEGER,
		created_by TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_public_links_inspection ON public_links(inspection_id);
	`

	if _, err := r.q.Exec(ctx, schema); err != nil {
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

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(context.WithoutCancel(ctx)) //nolint:errcheck // no-op after commit

	if err := fn(&Repository{pool: r.pool, q: tx, tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
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
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (id) DO UPDATE SET
				number = EXCLUDED.number,
				title = EXCLUDED.title,
				template_id = EXCLUDED.template_id,
				organization_id = EXCLUDED.organization_id,
				status = EXCLUDED.status,
				context_json = EXCLUDED.context_json,
				data_json = EXCLUDED.data_json,
				created_at = EXCLUDED.created_at,
				updated_at = EXCLUDED.updated_at,
				signed_at = EXCLUDED.signed_at
		`
		_, err := repo.q.Exec(ctx, query,
			insp.ID,
			insp.Number,
			insp.Title,
			insp.TemplateID,
			insp.OrganizationID,
			string(insp.Status),
			rawPtr(insp.Context),
			rawPtr(insp.Data),
			insp.CreatedAt.UTC(),
			insp.UpdatedAt.UTC(),
			utcPtr(insp.SignedAt),
		)
		if err != nil {
			return fmt.Errorf("saving inspection: %w", err)
		}

		for _, table := range []string{"inspection_items", "photos", "signatures"} {
			if _, err := repo.q.Exec(ctx, "DELETE FROM "+table+" WHERE inspection_id = $1", insp.ID); err != nil {
				return fmt.Errorf("clearing %s: %w", table, err)
			}
		}

		batch := &pgx.Batch{}
		for i := range insp.Items {
			item := &insp.Items[i]
			batch.Queue(`
				INSERT INTO inspection_items (id, inspection_id, position, path, label, type, value, notes,
					require_photo, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
				item.ID, insp.ID, i, item.Path, item.Label, item.Type, valuePtr(item.Value), item.Notes,
				item.RequirePhoto, item.CreatedAt.UTC(), item.UpdatedAt.UTC())
		}
		for i := range insp.Photos {
			p := &insp.Photos[i]
			batch.Queue(`
				INSERT INTO photos (id, inspection_id, position, item_path, file_ref, filename, mime_type, file_size, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
				p.ID, insp.ID, i, p.ItemPath, p.FileRef, p.Filename, p.MimeType, p.FileSize, p.CreatedAt.UTC())
		}
		if batch.Len() > 0 {
			if err := repo.q.(pgx.Tx).SendBatch(ctx, batch).Close(); err != nil {
				return fmt.Errorf("saving items and photos: %w", err)
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

// FindInspection loads the full aggregate. Returns nil if it does not exist.
func (r *Repository) FindInspection(ctx context.Context, id string) (*entities.Inspection, error) {
	query := `
		SELECT id, number, title, template_id, organization_id, status, context_json, data_json,
			created_at, updated_at, signed_at
		FROM inspections
		WHERE id = $1
	`
	insp, err := scanInspection(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
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
	var lim *int
	if limit > 0 {
		lim = &limit
	}
	query := `
		SELECT id, number, title, template_id, organization_id, status, context_json, data_json,
			created_at, updated_at, signed_at
		FROM inspections
		ORDER BY created_at DESC, id ASC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.q.Query(ctx, query, lim, offset)
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
		SET status = $1, signed_at = COALESCE($2, signed_at), updated_at = $3
		WHERE id = $4
	`
	tag, err := r.q.Exec(ctx, query, string(status), utcPtr(signedAt), timeNow().UTC(), id)
	if err != nil {
		return fmt.Errorf("updating inspection status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("inspection not found: %s", id)
	}
	return nil
}

// UpdateItemValue changes the live answer of one item.
func (r *Repository) UpdateItemValue(ctx context.Context, inspectionID, path string, value *entities.ItemValue, notes *string) (bool, error) {
	found := false
	err := r.atomic(ctx, func(repo *Repository) error {
		now := timeNow().UTC()
		query := `
			UPDATE inspection_items
			SET value = $1, notes = COALESCE($2, notes), updated_at = $3
			WHERE inspection_id = $4 AND path = $5
		`
		tag, err := repo.q.Exec(ctx, query, valuePtr(value), notes, now, inspectionID, path)
		if err != nil {
			return fmt.Errorf("updating item: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		found = true

		if _, err := repo.q.Exec(ctx, `UPDATE inspections SET updated_at = $1 WHERE id = $2`, now, inspectionID); err != nil {
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
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.q.Exec(ctx, query,
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
		WHERE inspection_id = $1
		ORDER BY position ASC
	`
	rows, err := r.q.Query(ctx, query, inspectionID)
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}
	defer rows.Close()

	result := make([]entities.InspectionItem, 0)
	for rows.Next() {
		var item entities.InspectionItem
		var value *string
		if err := rows.Scan(
			&item.ID,
			&item.Path,
			&item.Label,
			&item.Type,
			&value,
			&item.Notes,
			&item.RequirePhoto,
			&item.CreatedAt,
			&item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		if value != nil {
			v := entities.ItemValue(*value)
			item.Value = &v
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
		WHERE inspection_id = $1
		ORDER BY position ASC
	`
	rows, err := r.q.Query(ctx, query, inspectionID)
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
		WHERE inspection_id = $1
		ORDER BY signed_at ASC, id ASC
	`
	rows, err := r.q.Query(ctx, query, inspectionID)
	if err != nil {
		return nil, fmt.Errorf("querying signatures: %w", err)
	}
	defer rows.Close()

	result := make([]entities.Signature, 0)
	for rows.Next() {
		var sig entities.Signature
		var role string
		var geo *string
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
		if geo != nil {
			var point entities.GeoPoint
			if err := json.Unmarshal([]byte(*geo), &point); err != nil {
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
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.q.Exec(ctx, query,
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
		WHERE inspection_id = $1
		ORDER BY generated_at DESC, seq DESC
		LIMIT 1
	`
	rec, err := scanIntegrityRecord(r.q.QueryRow(ctx, query, inspectionID))
	if errors.Is(err, pgx.ErrNoRows) {
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
		WHERE inspection_id = $1
		ORDER BY generated_at DESC, seq DESC
	`
	rows, err := r.q.Query(ctx, query, inspectionID)
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
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.q.Exec(ctx, query,
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
	query := `SELECT ` + linkColumns + ` FROM public_links WHERE token = $1`
	link, err := scanLink(r.q.QueryRow(ctx, query, token))
	if errors.Is(err, pgx.ErrNoRows) {
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
		WHERE inspection_id = $1
		ORDER BY created_at DESC, seq DESC
	`
	rows, err := r.q.Query(ctx, query, inspectionID)
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
	query := `UPDATE public_links SET views_count = views_count + 1 WHERE token = $1`
	if _, err := r.q.Exec(ctx, query, token); err != nil {
		return fmt.Errorf("incrementing link views: %w", err)
	}
	return nil
}

// RevokeLink marks a link revoked. Returns false if no link has token.
func (r *Repository) RevokeLink(ctx context.Context, token string) (bool, error) {
	tag, err := r.q.Exec(ctx, `UPDATE public_links SET is_revoked = TRUE WHERE token = $1`, token)
	if err != nil {
		return false, fmt.Errorf("revoking link: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanInspection(row pgx.Row) (*entities.Inspection, error) {
	var insp entities.Inspection
	var status string
	var contextJSON, dataJSON *string

	if err := row.Scan(
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
		&insp.SignedAt,
	); err != nil {
		return nil, err
	}

	insp.Status = entities.InspectionStatus(status)
	if contextJSON != nil {
		insp.Context = json.RawMessage(*contextJSON)
	}
	if dataJSON != nil {
		insp.Data = json.RawMessage(*dataJSON)
	}
	insp.CreatedAt = insp.CreatedAt.UTC()
	insp.UpdatedAt = insp.UpdatedAt.UTC()
	if insp.SignedAt != nil {
		t := insp.SignedAt.UTC()
		insp.SignedAt = &t
	}
	return &insp, nil
}

func scanIntegrityRecord(row pgx.Row) (*entities.IntegrityRecord, error) {
	var rec entities.IntegrityRecord
	if err := row.Scan(
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

func scanLink(row pgx.Row) (*entities.PublicLink, error) {
	var link entities.PublicLink
	var kind string
	var maxViews *int32

	if err := row.Scan(
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
	if maxViews != nil {
		v := int(*maxViews)
		link.MaxViews = &v
	}
	link.ExpiresAt = link.ExpiresAt.UTC()
	link.CreatedAt = link.CreatedAt.UTC()
	return &link, nil
}

func rawPtr(raw json.RawMessage) *string {
	if len(raw) == 0 {
		return nil
	}
	s := string(raw)
	return &s
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func valuePtr(v *entities.ItemValue) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

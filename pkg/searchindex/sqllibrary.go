package searchindex

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/brandloom/agentforge/pkg/apperr"
	"github.com/brandloom/agentforge/pkg/media"
)

// SQLLibrary implements Library over database/sql, sharing the same
// connection discipline as pkg/docdb.Store (single connection for
// SQLite, pooled for Postgres/MySQL) — typically constructed against
// the same *sql.DB as the DocumentDBPort adapter, in a separate
// table, since a brand's media library and its document corpus are
// independent collections (spec §3).
type SQLLibrary struct {
	db     *sql.DB
	driver string
}

// NewSQLLibrary wraps an already-open *sql.DB and ensures the media
// library schema exists.
func NewSQLLibrary(db *sql.DB, driver string) (*SQLLibrary, error) {
	l := &SQLLibrary{db: db, driver: driver}
	if err := l.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *SQLLibrary) ensureSchema(ctx context.Context) error {
	textType := "TEXT"
	if l.driver == "mysql" {
		textType = "LONGTEXT"
	}
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS media_library_items (
		media_id    VARCHAR(255) NOT NULL,
		brand_id    VARCHAR(255) NOT NULL,
		kind        VARCHAR(32) NOT NULL,
		storage_uri %s NOT NULL,
		thumbnail_uri %s,
		title       %s,
		description %s,
		tags        %s,
		source      VARCHAR(32),
		created_at  TIMESTAMP NOT NULL,
		created_by  VARCHAR(255),
		vision_description %s,
		vision_keywords %s,
		vision_categories %s,
		enhanced_search_text %s,
		PRIMARY KEY (media_id)
	)`, textType, textType, textType, textType, textType, textType, textType, textType, textType)
	if _, err := l.db.ExecContext(ctx, stmt); err != nil {
		return apperr.Wrap(apperr.KindInternal, "searchindex: create media library schema", err)
	}
	return nil
}

func (l *SQLLibrary) placeholder(n int) string {
	if l.driver == "postgres" {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// UpsertItem stores or replaces one library item.
func (l *SQLLibrary) UpsertItem(ctx context.Context, item media.LibraryItem) error {
	tagsJSON, err := json.Marshal(item.Tags)
	if err != nil {
		return apperr.Wrap(apperr.KindValidation, "searchindex: marshal tags", err)
	}
	keywordsJSON, err := json.Marshal(item.VisionKeywords)
	if err != nil {
		return apperr.Wrap(apperr.KindValidation, "searchindex: marshal vision keywords", err)
	}
	categoriesJSON, err := json.Marshal(item.VisionCategories)
	if err != nil {
		return apperr.Wrap(apperr.KindValidation, "searchindex: marshal vision categories", err)
	}

	var query string
	switch l.driver {
	case "postgres":
		query = `INSERT INTO media_library_items
			(media_id, brand_id, kind, storage_uri, thumbnail_uri, title, description, tags, source, created_at, created_by, vision_description, vision_keywords, vision_categories, enhanced_search_text)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
			ON CONFLICT (media_id) DO UPDATE SET title=$6, description=$7, tags=$8, vision_description=$12, vision_keywords=$13, vision_categories=$14, enhanced_search_text=$15`
	case "mysql":
		query = `INSERT INTO media_library_items
			(media_id, brand_id, kind, storage_uri, thumbnail_uri, title, description, tags, source, created_at, created_by, vision_description, vision_keywords, vision_categories, enhanced_search_text)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
			ON DUPLICATE KEY UPDATE title=VALUES(title), description=VALUES(description), tags=VALUES(tags), vision_description=VALUES(vision_description), vision_keywords=VALUES(vision_keywords), vision_categories=VALUES(vision_categories), enhanced_search_text=VALUES(enhanced_search_text)`
	default:
		query = `INSERT INTO media_library_items
			(media_id, brand_id, kind, storage_uri, thumbnail_uri, title, description, tags, source, created_at, created_by, vision_description, vision_keywords, vision_categories, enhanced_search_text)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
			ON CONFLICT (media_id) DO UPDATE SET title=excluded.title, description=excluded.description, tags=excluded.tags, vision_description=excluded.vision_description, vision_keywords=excluded.vision_keywords, vision_categories=excluded.vision_categories, enhanced_search_text=excluded.enhanced_search_text`
	}

	createdAt := item.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = l.db.ExecContext(ctx, query,
		item.MediaID, item.BrandID, string(item.Kind), item.StorageURI, item.ThumbnailURI,
		item.Title, item.Description, string(tagsJSON), string(item.Source), createdAt, item.CreatedBy,
		item.VisionDescription, string(keywordsJSON), string(categoriesJSON), item.EnhancedSearchText,
	)
	if err != nil {
		return apperr.Wrap(apperr.KindTransient, "searchindex: upsert media library item", err)
	}
	return nil
}

// ListItems returns every library item for brandID.
func (l *SQLLibrary) ListItems(ctx context.Context, brandID string) ([]media.LibraryItem, error) {
	rows, err := l.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT media_id, brand_id, kind, storage_uri, thumbnail_uri, title, description, tags, source, created_at, created_by, vision_description, vision_keywords, vision_categories, enhanced_search_text
			FROM media_library_items WHERE brand_id = %s`, l.placeholder(1)),
		brandID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "searchindex: list media library items", err)
	}
	defer rows.Close()

	var out []media.LibraryItem
	for rows.Next() {
		var item media.LibraryItem
		var kind, source, tagsJSON, keywordsJSON, categoriesJSON string
		if err := rows.Scan(&item.MediaID, &item.BrandID, &kind, &item.StorageURI, &item.ThumbnailURI,
			&item.Title, &item.Description, &tagsJSON, &source, &item.CreatedAt, &item.CreatedBy,
			&item.VisionDescription, &keywordsJSON, &categoriesJSON, &item.EnhancedSearchText); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "searchindex: scan media library row", err)
		}
		item.Kind = media.Kind(kind)
		item.Source = media.Source(source)
		_ = json.Unmarshal([]byte(tagsJSON), &item.Tags)
		_ = json.Unmarshal([]byte(keywordsJSON), &item.VisionKeywords)
		_ = json.Unmarshal([]byte(categoriesJSON), &item.VisionCategories)
		out = append(out, item)
	}
	return out, rows.Err()
}

var _ Library = (*SQLLibrary)(nil)

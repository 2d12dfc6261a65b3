package catalog

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Repository reads filter option sets. The catalog is reference data: all
// queries are read-only.
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates a new catalog repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// EventTypes returns the event type options.
func (r *Repository) EventTypes(ctx context.Context) ([]Option, error) {
	return r.options(ctx, "event_types")
}

// Cultures returns the cultural tradition options.
func (r *Repository) Cultures(ctx context.Context) ([]Option, error) {
	return r.options(ctx, "cultures")
}

// Subcategories returns the vendor subcategory options.
func (r *Repository) Subcategories(ctx context.Context) ([]Option, error) {
	return r.options(ctx, "subcategories")
}

// Features returns the vendor feature options.
func (r *Repository) Features(ctx context.Context) ([]Option, error) {
	return r.options(ctx, "features")
}

// ExperienceRanges returns the experience bracket presets.
func (r *Repository) ExperienceRanges(ctx context.Context) ([]Preset, error) {
	return r.presets(ctx, "experience_ranges")
}

// ServiceLocations returns the service location presets.
func (r *Repository) ServiceLocations(ctx context.Context) ([]Preset, error) {
	return r.presets(ctx, "service_locations")
}

// FilterCatalog loads every option set in one pass.
func (r *Repository) FilterCatalog(ctx context.Context) (*FilterCatalog, error) {
	catalog := &FilterCatalog{}

	var err error
	if catalog.EventTypes, err = r.EventTypes(ctx); err != nil {
		return nil, err
	}
	if catalog.Cultures, err = r.Cultures(ctx); err != nil {
		return nil, err
	}
	if catalog.Subcategories, err = r.Subcategories(ctx); err != nil {
		return nil, err
	}
	if catalog.Features, err = r.Features(ctx); err != nil {
		return nil, err
	}
	if catalog.ExperienceRanges, err = r.ExperienceRanges(ctx); err != nil {
		return nil, err
	}
	if catalog.ServiceLocations, err = r.ServiceLocations(ctx); err != nil {
		return nil, err
	}

	return catalog, nil
}

// options reads an ID-keyed option table. Table names are fixed by the
// callers above, never caller input.
func (r *Repository) options(ctx context.Context, table string) ([]Option, error) {
	query := `SELECT id, slug, label FROM ` + table + ` WHERE is_active = true ORDER BY sort_order, label`
	var out []Option
	err := r.db.SelectContext(ctx, &out, query)
	return out, err
}

func (r *Repository) presets(ctx context.Context, table string) ([]Preset, error) {
	query := `SELECT slug, label FROM ` + table + ` WHERE is_active = true ORDER BY sort_order`
	var out []Preset
	err := r.db.SelectContext(ctx, &out, query)
	return out, err
}

package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const settingsColumns = `id, name, phone, address, logo_url, created_at, updated_at`

func scanSettings(row pgx.Row) (CompanySettings, error) {
	var s CompanySettings
	err := row.Scan(&s.ID, &s.Name, &s.Phone, &s.Address, &s.LogoURL, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// GetCompanySettings returns the single settings row, or ErrNoRows before
// first save.
func (q *Queries) GetCompanySettings(ctx context.Context) (CompanySettings, error) {
	return scanSettings(q.db.QueryRow(ctx, `
		SELECT `+settingsColumns+` FROM company_settings LIMIT 1`))
}

type UpsertCompanySettingsParams struct {
	Name    string
	Phone   pgtype.Text
	Address pgtype.Text
	LogoURL pgtype.Text
}

// UpsertCompanySettings updates the settings row, creating it on first save.
// The table holds at most one row.
func (q *Queries) UpsertCompanySettings(ctx context.Context, arg UpsertCompanySettingsParams) (CompanySettings, error) {
	existing, err := q.GetCompanySettings(ctx)
	if err != nil {
		if err == pgx.ErrNoRows {
			return scanSettings(q.db.QueryRow(ctx, `
				INSERT INTO company_settings (name, phone, address, logo_url)
				VALUES ($1, $2, $3, $4)
				RETURNING `+settingsColumns,
				arg.Name, arg.Phone, arg.Address, arg.LogoURL))
		}
		return CompanySettings{}, err
	}

	return scanSettings(q.db.QueryRow(ctx, `
		UPDATE company_settings
		SET name = $2, phone = $3, address = $4, logo_url = $5, updated_at = now()
		WHERE id = $1
		RETURNING `+settingsColumns,
		existing.ID, arg.Name, arg.Phone, arg.Address, arg.LogoURL))
}

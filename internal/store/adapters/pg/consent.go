package pg

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dropDatabas3/consentd/internal/domain/consent"
	"github.com/dropDatabas3/consentd/internal/domain/psu"
	"github.com/dropDatabas3/consentd/internal/domain/repository"
)

type consentRepo struct {
	q querier
}

const consentColumns = `
	id, instance_id, consent_type, status, created_at, valid_until,
	last_action_date, frequency_per_day, recurring, one_access_type,
	psus, tpp_authorisation_number, tpp_redirect_uri, tpp_nok_redirect_uri,
	account_access`

func (r *consentRepo) Create(ctx context.Context, c *consent.Consent) error {
	const query = `
		INSERT INTO ais_consent (` + consentColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`
	psus, err := json.Marshal(c.Psus)
	if err != nil {
		return fmt.Errorf("pg: marshal psus: %w", err)
	}
	access, err := json.Marshal(c.Access)
	if err != nil {
		return fmt.Errorf("pg: marshal access: %w", err)
	}
	_, err = r.q.Exec(ctx, query,
		c.ID, c.InstanceID, c.Type, c.Status, c.CreatedAt, c.ValidUntil,
		c.LastActionDate, c.FrequencyPerDay, c.Recurring, c.OneAccessType,
		psus, c.TppAuthorisationNumber, c.TppRedirectURI, c.TppNokRedirectURI,
		access,
	)
	return err
}

func (r *consentRepo) GetByID(ctx context.Context, id string) (*consent.Consent, error) {
	const query = `SELECT ` + consentColumns + ` FROM ais_consent WHERE id = $1`
	return scanConsent(r.q.QueryRow(ctx, query, id))
}

func (r *consentRepo) Update(ctx context.Context, c *consent.Consent) error {
	const query = `
		UPDATE ais_consent SET
			status = $2, valid_until = $3, last_action_date = $4,
			psus = $5, account_access = $6
		WHERE id = $1
	`
	psus, err := json.Marshal(c.Psus)
	if err != nil {
		return fmt.Errorf("pg: marshal psus: %w", err)
	}
	access, err := json.Marshal(c.Access)
	if err != nil {
		return fmt.Errorf("pg: marshal access: %w", err)
	}
	tag, err := r.q.Exec(ctx, query, c.ID, c.Status, c.ValidUntil, c.LastActionDate, psus, access)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *consentRepo) FindByPsuAndTpp(ctx context.Context, f repository.ConsentFilter) ([]*consent.Consent, error) {
	query := `SELECT ` + consentColumns + ` FROM ais_consent
		WHERE instance_id = $1 AND tpp_authorisation_number = $2 AND status = ANY($3)`
	statuses := make([]string, 0, len(f.Statuses))
	for _, s := range f.Statuses {
		statuses = append(statuses, string(s))
	}
	args := []any{f.InstanceID, f.TppAuthorisationNumber, statuses}
	for _, psuID := range f.PsuIDs {
		probe, _ := json.Marshal([]map[string]string{{"psu_id": psuID}})
		args = append(args, string(probe))
		query += fmt.Sprintf(" AND psus @> $%d::jsonb", len(args))
	}
	query += " ORDER BY created_at"

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*consent.Consent
	for rows.Next() {
		c, err := scanConsent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// scanConsent levanta una fila de ais_consent. Acepta pgx.Row y pgx.Rows.
func scanConsent(row pgx.Row) (*consent.Consent, error) {
	var c consent.Consent
	var psus, access []byte
	err := row.Scan(
		&c.ID, &c.InstanceID, &c.Type, &c.Status, &c.CreatedAt, &c.ValidUntil,
		&c.LastActionDate, &c.FrequencyPerDay, &c.Recurring, &c.OneAccessType,
		&psus, &c.TppAuthorisationNumber, &c.TppRedirectURI, &c.TppNokRedirectURI,
		&access,
	)
	if err == pgx.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(psus) > 0 {
		var list psu.IdentityList
		if err := json.Unmarshal(psus, &list); err != nil {
			return nil, fmt.Errorf("pg: unmarshal psus: %w", err)
		}
		c.Psus = list
	}
	if len(access) > 0 {
		if err := json.Unmarshal(access, &c.Access); err != nil {
			return nil, fmt.Errorf("pg: unmarshal access: %w", err)
		}
	}
	return &c, nil
}

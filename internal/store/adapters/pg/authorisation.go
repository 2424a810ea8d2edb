package pg

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dropDatabas3/consentd/internal/domain/authorisation"
	"github.com/dropDatabas3/consentd/internal/domain/psu"
	"github.com/dropDatabas3/consentd/internal/domain/repository"
)

type authRepo struct {
	q querier
}

const authColumns = `
	id, instance_id, parent_id, parent_kind, kind, sca_status, sca_approach,
	psu, chosen_method_id, available_methods, created_at,
	redirect_uri_expires_at, expires_at, tpp_redirect_uri, tpp_nok_redirect_uri`

func (r *authRepo) Create(ctx context.Context, a *authorisation.Authorisation) error {
	const query = `
		INSERT INTO authorisation (` + authColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`
	psuJSON, methods, err := marshalAuthJSON(a)
	if err != nil {
		return err
	}
	_, err = r.q.Exec(ctx, query,
		a.ID, a.InstanceID, a.ParentID, a.ParentKind, a.Kind, a.ScaStatus,
		a.ScaApproach, psuJSON, a.ChosenMethodID, methods, a.CreatedAt,
		a.RedirectURIExpiresAt, a.ExpiresAt, a.TppRedirectURI, a.TppNokRedirectURI,
	)
	return err
}

func (r *authRepo) GetByID(ctx context.Context, id string) (*authorisation.Authorisation, error) {
	const query = `SELECT ` + authColumns + ` FROM authorisation WHERE id = $1`
	return scanAuthorisation(r.q.QueryRow(ctx, query, id))
}

func (r *authRepo) Update(ctx context.Context, a *authorisation.Authorisation) error {
	const query = `
		UPDATE authorisation SET
			sca_status = $2, psu = $3, chosen_method_id = $4,
			available_methods = $5, redirect_uri_expires_at = $6
		WHERE id = $1
	`
	psuJSON, methods, err := marshalAuthJSON(a)
	if err != nil {
		return err
	}
	tag, err := r.q.Exec(ctx, query, a.ID, a.ScaStatus, psuJSON, a.ChosenMethodID, methods, a.RedirectURIExpiresAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *authRepo) ListByParent(ctx context.Context, parentID string, kind authorisation.Kind) ([]*authorisation.Authorisation, error) {
	const query = `SELECT ` + authColumns + ` FROM authorisation
		WHERE parent_id = $1 AND kind = $2 ORDER BY created_at`
	rows, err := r.q.Query(ctx, query, parentID, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*authorisation.Authorisation
	for rows.Next() {
		a, err := scanAuthorisation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func marshalAuthJSON(a *authorisation.Authorisation) (psuJSON, methods []byte, err error) {
	if a.Psu != nil {
		psuJSON, err = json.Marshal(a.Psu)
		if err != nil {
			return nil, nil, fmt.Errorf("pg: marshal psu: %w", err)
		}
	}
	methods, err = json.Marshal(a.AvailableMethods)
	if err != nil {
		return nil, nil, fmt.Errorf("pg: marshal methods: %w", err)
	}
	return psuJSON, methods, nil
}

func scanAuthorisation(row pgx.Row) (*authorisation.Authorisation, error) {
	var a authorisation.Authorisation
	var psuJSON, methods []byte
	err := row.Scan(
		&a.ID, &a.InstanceID, &a.ParentID, &a.ParentKind, &a.Kind, &a.ScaStatus,
		&a.ScaApproach, &psuJSON, &a.ChosenMethodID, &methods, &a.CreatedAt,
		&a.RedirectURIExpiresAt, &a.ExpiresAt, &a.TppRedirectURI, &a.TppNokRedirectURI,
	)
	if err == pgx.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(psuJSON) > 0 {
		var p psu.Identity
		if err := json.Unmarshal(psuJSON, &p); err != nil {
			return nil, fmt.Errorf("pg: unmarshal psu: %w", err)
		}
		a.Psu = &p
	}
	if len(methods) > 0 {
		if err := json.Unmarshal(methods, &a.AvailableMethods); err != nil {
			return nil, fmt.Errorf("pg: unmarshal methods: %w", err)
		}
	}
	return &a, nil
}

package pg

import (
	"context"

	"github.com/dropDatabas3/consentd/internal/domain/consent"
	"github.com/dropDatabas3/consentd/internal/domain/repository"
)

type usageRepo struct {
	q querier
}

func (r *usageRepo) Record(ctx context.Context, u *consent.Usage) error {
	// Upsert por (consent, día, URI): día nuevo crea fila nueva, con lo que
	// el rollover resetea el contador implícitamente.
	const query = `
		INSERT INTO consent_usage (
			consent_id, usage_date, request_uri, resource_id, transaction_id,
			booking_status, total_pages, usage_counter
		) VALUES ($1,$2,$3,$4,$5,$6,$7,1)
		ON CONFLICT (consent_id, usage_date, request_uri) DO UPDATE SET
			usage_counter  = consent_usage.usage_counter + 1,
			resource_id    = EXCLUDED.resource_id,
			transaction_id = EXCLUDED.transaction_id,
			booking_status = CASE WHEN EXCLUDED.booking_status <> ''
			                      THEN EXCLUDED.booking_status
			                      ELSE consent_usage.booking_status END,
			total_pages    = GREATEST(consent_usage.total_pages, EXCLUDED.total_pages)
	`
	_, err := r.q.Exec(ctx, query,
		u.ConsentID, u.UsageDate, u.RequestURI, u.ResourceID, u.TransactionID,
		string(u.BookingStatus), u.TotalPages,
	)
	return err
}

func (r *usageRepo) ListByConsent(ctx context.Context, consentID string) ([]*consent.Usage, error) {
	const query = `
		SELECT consent_id, usage_date, request_uri, resource_id, transaction_id,
		       booking_status, total_pages, usage_counter
		FROM consent_usage
		WHERE consent_id = $1
		ORDER BY usage_date, request_uri
	`
	rows, err := r.q.Query(ctx, query, consentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*consent.Usage
	for rows.Next() {
		var u consent.Usage
		var bs string
		if err := rows.Scan(
			&u.ConsentID, &u.UsageDate, &u.RequestURI, &u.ResourceID,
			&u.TransactionID, &bs, &u.TotalPages, &u.Counter,
		); err != nil {
			return nil, err
		}
		u.BookingStatus = consent.BookingStatus(bs)
		out = append(out, &u)
	}
	return out, rows.Err()
}

var _ repository.UsageRepository = (*usageRepo)(nil)

package pg

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dropDatabas3/consentd/internal/domain/payment"
	"github.com/dropDatabas3/consentd/internal/domain/psu"
	"github.com/dropDatabas3/consentd/internal/domain/repository"
)

type paymentRepo struct {
	q querier
}

const paymentColumns = `
	id, instance_id, transaction_status, created_at, last_action_date,
	psus, tpp_authorisation_number, payment_product`

func (r *paymentRepo) Create(ctx context.Context, p *payment.Payment) error {
	const query = `
		INSERT INTO pis_payment (` + paymentColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`
	psus, err := json.Marshal(p.Psus)
	if err != nil {
		return fmt.Errorf("pg: marshal psus: %w", err)
	}
	_, err = r.q.Exec(ctx, query,
		p.ID, p.InstanceID, p.TransactionStatus, p.CreatedAt, p.LastActionDate,
		psus, p.TppAuthorisationNumber, p.PaymentProduct,
	)
	return err
}

func (r *paymentRepo) GetByID(ctx context.Context, id string) (*payment.Payment, error) {
	const query = `SELECT ` + paymentColumns + ` FROM pis_payment WHERE id = $1`
	var p payment.Payment
	var psus []byte
	err := r.q.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.InstanceID, &p.TransactionStatus, &p.CreatedAt, &p.LastActionDate,
		&psus, &p.TppAuthorisationNumber, &p.PaymentProduct,
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
		p.Psus = list
	}
	return &p, nil
}

func (r *paymentRepo) Update(ctx context.Context, p *payment.Payment) error {
	const query = `
		UPDATE pis_payment SET
			transaction_status = $2, last_action_date = $3, psus = $4
		WHERE id = $1
	`
	psus, err := json.Marshal(p.Psus)
	if err != nil {
		return fmt.Errorf("pg: marshal psus: %w", err)
	}
	tag, err := r.q.Exec(ctx, query, p.ID, p.TransactionStatus, p.LastActionDate, psus)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

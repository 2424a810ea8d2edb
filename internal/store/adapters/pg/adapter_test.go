package pg_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dropDatabas3/consentd/internal/domain/repository"
	"github.com/dropDatabas3/consentd/internal/store/adapters/pg"
)

func TestOpen_EmptyDSN(t *testing.T) {
	t.Parallel()

	_, err := pg.Open(context.Background(), pg.Config{})
	assert.ErrorIs(t, err, repository.ErrNoDatabase)
}

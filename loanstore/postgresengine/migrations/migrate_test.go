package migrations_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/bike-loan-engine-go/loanstore/postgresengine/migrations"
)

func Test_Names_ReturnsMigrationsInApplyOrder(t *testing.T) {
	// act
	names, err := migrations.Names()

	// assert
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_init.sql", "0002_change_feed.sql"}, names)
}

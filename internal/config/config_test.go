package config

import (
	"testing"

	"github.com/flexprice/flexgym/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := GetDefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.True(t, decimal.NewFromInt(10).Equal(cfg.Engine.GetDefaultCommissionValue()))
}

func TestValidateRejectsBadEngineDefaults(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Engine.DefaultProrationPolicy = types.ProrationPolicy("pro_rata")
	assert.Error(t, cfg.Validate())

	cfg = GetDefaultConfig()
	cfg.Engine.DefaultCommissionValue = "ten"
	assert.Error(t, cfg.Validate())

	cfg = GetDefaultConfig()
	cfg.Engine.MaxFreezeDays = 400
	assert.Error(t, cfg.Validate())
}

func TestPostgresDSN(t *testing.T) {
	c := PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "gym", SSLMode: "disable"}
	assert.Equal(t, "user=u password=p dbname=gym host=db port=5432 sslmode=disable", c.GetDSN())
	assert.Equal(t, "postgres://u:p@db:5432/gym?sslmode=disable", c.GetMigrateURL())
}

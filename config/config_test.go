package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicyConfig_SharedInfrastructure(t *testing.T) {
	p := PolicyConfig{SharedInfrastructureCSV: "exchange:dead-letter, queue:retry-queue ,malformed,  "}

	got := p.SharedInfrastructure()
	assert.Equal(t, []SharedInfrastructureResource{
		{Kind: "exchange", Name: "dead-letter"},
		{Kind: "queue", Name: "retry-queue"},
	}, got)
}

func TestPolicyConfig_SharedInfrastructure_Empty(t *testing.T) {
	p := PolicyConfig{}
	assert.Nil(t, p.SharedInfrastructure())
}

func TestConfig_Validate(t *testing.T) {
	cfg := &Config{
		Policy:   PolicyConfig{DefaultVHost: "/"},
		Database: DatabaseConfig{Host: "localhost", Name: "broker_auth"},
	}
	assert.NoError(t, cfg.validate())

	missingVhost := &Config{Database: DatabaseConfig{Host: "localhost", Name: "broker_auth"}}
	assert.Error(t, missingVhost.validate())

	missingDB := &Config{Policy: PolicyConfig{DefaultVHost: "/"}}
	assert.Error(t, missingDB.validate())
}

func TestConfig_GetDSNAndAddr(t *testing.T) {
	cfg := &Config{
		Server:   ServerConfig{Host: "0.0.0.0", Port: 7700},
		Database: DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "n", SSLMode: "disable"},
	}

	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", cfg.GetDSN())
	assert.Equal(t, "0.0.0.0:7700", cfg.GetServerAddr())
}

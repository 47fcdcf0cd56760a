package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbook/backend/internal/config"
)

func TestValidateSecurityConfigRejectsWeakValues(t *testing.T) {
	assert.Error(t, validateSecurityConfig(config.Config{AuthSecret: "short", OwnerPassword: "long-enough-pass"}))
	assert.Error(t, validateSecurityConfig(config.Config{AuthSecret: "0123456789abcdef0123456789abcdef", OwnerPassword: "short"}))
	assert.Error(t, validateSecurityConfig(config.Config{AuthSecret: "0123456789abcdef0123456789abcdef", OwnerUsername: "shopowner", OwnerPassword: "shopowner"}))
}

func TestValidateSecurityConfigAcceptsStrongValues(t *testing.T) {
	err := validateSecurityConfig(config.Config{AuthSecret: "0123456789abcdef0123456789abcdef", OwnerUsername: "owner", OwnerPassword: "correct-horse-battery"})
	assert.NoError(t, err)
}

func TestOpenRepositoryDefaultsToMemory(t *testing.T) {
	repo, closers, err := openRepository(context.Background(), config.Config{StoreBackend: config.BackendMemory, SeedDemoData: true})
	require.NoError(t, err)
	assert.Empty(t, closers)

	products, err := repo.ListProducts(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, products)
}

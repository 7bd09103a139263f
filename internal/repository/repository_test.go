package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRepositoriesRequiresDB(t *testing.T) {
	repos, err := NewRepositories(nil)
	assert.Error(t, err)
	assert.Nil(t, repos)
}

func TestRepositoryRoundTrips(t *testing.T) {
	// Exercised against a live database in the integration environment;
	// the in-memory fakes in the consuming packages cover the contracts.
	t.Skip("Integration test - requires database setup")
}

func TestWagerColumnCount(t *testing.T) {
	// The shared column list must stay in step with Create's placeholders.
	require.Equal(t, 16, countColumns(wagerColumns))
}

func countColumns(list string) int {
	count := 1
	for _, r := range list {
		if r == ',' {
			count++
		}
	}
	return count
}

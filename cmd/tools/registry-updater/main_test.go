package main

import (
	"os"
	"path/filepath"
	"testing"

	"coach-matching/pkg/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newActivity(id string) registry.Activity {
	return registry.Activity{
		ID:                   id,
		DisplayName:          "Match Providers",
		Description:          "Ranks providers",
		Category:             "matching",
		TaskType:             id,
		ImplementationStatus: "planned",
		InputSchema: map[string]interface{}{
			"type":     "object",
			"required": []interface{}{"preferences"},
		},
	}
}

func TestAddUpdateValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "registry.json")

	require.NoError(t, addActivity(path, newActivity("match-providers")))
	assert.Error(t, addActivity(path, newActivity("match-providers")), "duplicate id")

	bad := newActivity("other")
	bad.ImplementationStatus = "done"
	assert.Error(t, addActivity(path, bad))

	require.NoError(t, updateActivity(path, "match-providers", "status", "completed"))
	require.NoError(t, updateActivity(path, "match-providers", "retries", "3"))
	assert.Error(t, updateActivity(path, "match-providers", "retries", "three"))
	assert.Error(t, updateActivity(path, "match-providers", "status", "shipped"))
	assert.Error(t, updateActivity(path, "match-providers", "color", "blue"))
	assert.Error(t, updateActivity(path, "missing", "status", "completed"))

	reg, err := registry.LoadRegistry(path)
	require.NoError(t, err)
	a, ok := reg.FindByID("match-providers")
	require.True(t, ok)
	assert.Equal(t, "completed", a.ImplementationStatus)
	assert.Equal(t, 3, a.Retries)
	assert.NotEmpty(t, reg.LastUpdated)

	n, err := validateRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestValidateRepositoryRegistry(t *testing.T) {
	n, err := validateRegistry("../../../configs/activity-registry.json")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCheckInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	require.NoError(t, addActivity(path, newActivity("match-providers")))

	good := filepath.Join(t.TempDir(), "good.json")
	require.NoError(t, os.WriteFile(good, []byte(`{"preferences":{}}`), 0644))
	problems, err := checkInput(path, "match-providers", good)
	require.NoError(t, err)
	assert.Empty(t, problems)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"requestId":"r"}`), 0644))
	problems, err = checkInput(path, "match-providers", bad)
	require.NoError(t, err)
	assert.Len(t, problems, 1)

	_, err = checkInput(path, "unknown", good)
	assert.Error(t, err)
}

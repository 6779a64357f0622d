package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validActivity(id string) Activity {
	return Activity{
		ID:          id,
		DisplayName: "Match Providers",
		Category:    "matching",
		TaskType:    id,
		InputSchema: map[string]interface{}{
			"type":     "object",
			"required": []interface{}{"preferences"},
			"properties": map[string]interface{}{
				"preferences": map[string]interface{}{"type": "object"},
			},
		},
	}
}

func TestSaveAndLoadRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "activity-registry.json")
	reg := &ActivityRegistry{Version: "1.0.0", Activities: []Activity{validActivity("match-providers")}}

	require.NoError(t, SaveRegistry(reg, path))
	assert.NotEmpty(t, reg.LastUpdated)

	loaded, err := LoadRegistry(path)
	require.NoError(t, err)
	a, ok := loaded.FindByTaskType("match-providers")
	require.True(t, ok)
	assert.Equal(t, "Match Providers", a.DisplayName)

	_, ok = loaded.FindByID("refresh-provider-catalog")
	assert.False(t, ok)
}

func TestLoadRegistry_Errors(t *testing.T) {
	_, err := LoadRegistry(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, os.IsNotExist(err))

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err = LoadRegistry(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		reg     ActivityRegistry
		wantErr string
	}{
		{name: "valid", reg: ActivityRegistry{Activities: []Activity{validActivity("a"), validActivity("b")}}},
		{name: "empty", reg: ActivityRegistry{}, wantErr: "no activities"},
		{name: "duplicate", reg: ActivityRegistry{Activities: []Activity{validActivity("a"), validActivity("a")}}, wantErr: "duplicate"},
		{
			name: "missing task type",
			reg: ActivityRegistry{Activities: []Activity{func() Activity {
				a := validActivity("a")
				a.TaskType = ""
				return a
			}()}},
			wantErr: "TaskType",
		},
		{
			name: "schema does not compile",
			reg: ActivityRegistry{Activities: []Activity{func() Activity {
				a := validActivity("a")
				a.InputSchema = map[string]interface{}{"type": 12}
				return a
			}()}},
			wantErr: "inputSchema",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.reg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

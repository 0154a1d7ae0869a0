package models_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statevault/statevault/internal/models"
)

func TestLookupJSON(t *testing.T) {
	var doc any
	require.NoError(t, json.Unmarshal([]byte(`{
		"password": {"data": "abc", "mode": 17},
		"providers": [
			{"owner": "first"},
			{"owner": "second"}
		],
		"settings": {"theme": {"font_size": 16}}
	}`), &doc))

	tests := []struct {
		name  string
		path  string
		want  any
		found bool
	}{
		{"nested object", "password.data", "abc", true},
		{"array index", "providers.1.owner", "second", true},
		{"deep path", "settings.theme.font_size", float64(16), true},
		{"whole object", "password", map[string]any{"data": "abc", "mode": float64(17)}, true},
		{"missing key", "password.nope", nil, false},
		{"index out of range", "providers.2.owner", nil, false},
		{"negative index", "providers.-1.owner", nil, false},
		{"non-numeric index", "providers.first.owner", nil, false},
		{"scalar traversal", "password.data.deeper", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := models.LookupJSON(doc, tt.path)
			assert.Equal(t, tt.found, found)
			if tt.found {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

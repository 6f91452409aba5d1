package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionalFields(t *testing.T) {
	type patch struct {
		Title OptString  `json:"title"`
		Grade OptFloat64 `json:"grade"`
		Due   OptTime    `json:"due"`
	}

	tests := []struct {
		name      string
		body      string
		wantSet   [3]bool
		wantValid [3]bool
	}{
		{"absent", `{}`, [3]bool{}, [3]bool{}},
		{"null", `{"title":null,"grade":null,"due":null}`, [3]bool{true, true, true}, [3]bool{}},
		{"values", `{"title":"","grade":0,"due":"2030-01-02T15:00:00Z"}`, [3]bool{true, true, true}, [3]bool{true, true, true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p patch
			require.NoError(t, json.Unmarshal([]byte(tt.body), &p))
			assert.Equal(t, tt.wantSet, [3]bool{p.Title.Set, p.Grade.Set, p.Due.Set})
			assert.Equal(t, tt.wantValid, [3]bool{p.Title.Valid, p.Grade.Valid, p.Due.Valid})
		})
	}

	var p patch
	require.NoError(t, json.Unmarshal([]byte(`{"due":"2030-01-02T15:00:00Z"}`), &p))
	assert.True(t, p.Due.Time.Time.Equal(time.Date(2030, 1, 2, 15, 0, 0, 0, time.UTC)))
}

func TestOptString_Blank(t *testing.T) {
	assert.False(t, OptString{}.Blank(), "absent is not blank")
	assert.True(t, OptString{Set: true}.Blank())
	assert.True(t, SetString("  ").Blank())
	assert.False(t, SetString("x").Blank())
}

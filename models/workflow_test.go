package models

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

func parseSchema(t *testing.T, model interface{}) *schema.Schema {
	t.Helper()
	s, err := schema.Parse(model, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)
	return s
}

// gorm omits zero-valued fields carrying a column default from the INSERT,
// so a workflow or rule created with enabled=false would be persisted as
// enabled. These fields must carry no column default; their defaults are
// applied in code instead.
func TestCreatedDisabledStaysDisabled(t *testing.T) {
	cases := []struct {
		model  interface{}
		fields []string
	}{
		{&Workflow{}, []string{"Enabled"}},
		{&ScoringRule{}, []string{"Enabled"}},
		{&ScoringConfig{}, []string{
			"Enabled", "AutoCalculate", "ManualOverride",
			"MaxScore", "AutomaticWeight", "ManualWeight",
		}},
	}
	for _, tc := range cases {
		s := parseSchema(t, tc.model)
		for _, name := range tc.fields {
			field := s.FieldsByName[name]
			require.NotNil(t, field, "%s.%s", s.Name, name)
			assert.False(t, field.HasDefaultValue,
				"%s.%s: a column default makes gorm drop the zero value from the INSERT", s.Name, name)
		}
	}
}

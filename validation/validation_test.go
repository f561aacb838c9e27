package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID      string `json:"id" validate:"required"`
	Title   string `json:"title" validate:"required_without=Content"`
	Content string `json:"content" validate:"required_without=Title"`
}

type payload struct {
	Query string `json:"query" validate:"required"`
	Items []item `json:"items" validate:"required,min=1,dive"`
	Limit int    `json:"limit" validate:"gte=0"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name       string
		in         payload
		wantFields []string
	}{
		{
			name: "valid",
			in:   payload{Query: "q", Items: []item{{ID: "1", Content: "c"}}},
		},
		{
			name: "title alone is enough",
			in:   payload{Query: "q", Items: []item{{ID: "1", Title: "t"}}},
		},
		{
			name:       "missing query",
			in:         payload{Items: []item{{ID: "1", Content: "c"}}},
			wantFields: []string{"query"},
		},
		{
			name:       "empty items",
			in:         payload{Query: "q", Items: []item{}},
			wantFields: []string{"items"},
		},
		{
			name:       "item without id or text",
			in:         payload{Query: "q", Items: []item{{}}},
			wantFields: []string{"items[0].id", "items[0].title", "items[0].content"},
		},
		{
			name:       "negative limit",
			in:         payload{Query: "q", Items: []item{{ID: "1", Content: "c"}}, Limit: -1},
			wantFields: []string{"limit"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.in)
			if tt.wantFields == nil {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			verr, ok := err.(*ValidationError)
			require.True(t, ok)
			assert.ElementsMatch(t, tt.wantFields, verr.Fields)
			assert.NotEmpty(t, verr.Error())
		})
	}
}

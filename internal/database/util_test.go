package database

import (
	"testing"

	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestConditions(t *testing.T) {
	tests := []struct {
		name        string
		placeholder Placeholder
		schema      string
		table       string
		wantWhere   string
		wantArgs    []any
	}{
		{"Both set", ColonN, "HR", "EMPLOYEES", " WHERE owner = :1 AND table_name = :2", []any{"HR", "EMPLOYEES"}},
		{"Schema only", DollarN, "hr", "", " WHERE owner = $1", []any{"hr"}},
		{"Nothing set", QuestionMark, "", "", "", nil},
		{"Table only", AtPN, "", "orders", " WHERE table_name = @p1", []any{"orders"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewConditions(tt.placeholder).Equal("owner", tt.schema).Equal("table_name", tt.table)
			assert.Equal(t, tt.wantWhere, c.Where())
			assert.Equal(t, tt.wantArgs, c.Args())
			assert.Empty(t, c.Where(), "clauses are cleared once rendered")
		})
	}
}

func TestConditionsNumberingContinues(t *testing.T) {
	c := NewConditions(ColonN)
	first := c.Equal("c.owner", "HR").And()
	second := c.Equal("s.owner", "HR").And()

	assert.Equal(t, " AND c.owner = :1", first)
	assert.Equal(t, " AND s.owner = :2", second)
	assert.Equal(t, []any{"HR", "HR"}, c.Args())
}

func TestPropertiesFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.ConnectionUser = "scott"
	cfg.ConnectionPassword = "tiger"
	cfg.Database = "hr"
	cfg.UsePrivateIP = true

	p := PropertiesFromConfig(cfg)
	assert.Equal(t, "scott", p.User())
	assert.Equal(t, "tiger", p.Password())
	assert.Equal(t, "hr", p.Database())
	assert.Equal(t, "10000", p[PropRowPrefetch])
	assert.Equal(t, 10000, p.FetchSize())
	assert.True(t, p.IncludeSynonyms())
	assert.True(t, p.UsePrivateIP())

	clone := p.Clone()
	clone[PropRowPrefetch] = "50"
	assert.Equal(t, 50, clone.FetchSize())
	assert.Equal(t, 10000, p.FetchSize())
}

func TestPropertiesFallbacks(t *testing.T) {
	p := Properties{PropRowPrefetch: "lots", PropIncludeSynonyms: "nope"}
	assert.Equal(t, config.DefaultFetchSize, p.FetchSize())
	assert.False(t, p.IncludeSynonyms())
	assert.False(t, p.UsePrivateIP())
}

func TestTableFilterMatches(t *testing.T) {
	assert.True(t, TableFilter{}.Matches(KindSynonym))
	f := TableFilter{Kinds: []TableKind{KindTable, KindView}}
	assert.True(t, f.Matches(KindView))
	assert.False(t, f.Matches(KindSynonym))
}

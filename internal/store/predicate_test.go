package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeLiteral_DoublesSingleQuotes(t *testing.T) {
	assert.Equal(t, "O''Brien", EscapeLiteral("O'Brien"))
	assert.Equal(t, "plain", EscapeLiteral("plain"))
	assert.Equal(t, "''''", EscapeLiteral("''"))
}

func TestMatch_Eq(t *testing.T) {
	row := map[string]string{"path": "internal/store/store.go"}
	assert.True(t, match(Eq{Field: "path", Value: "internal/store/store.go"}, row))
	assert.False(t, match(Eq{Field: "path", Value: "other.go"}, row))
}

func TestMatch_LikePrefix(t *testing.T) {
	row := map[string]string{"path": "internal/store/store.go"}
	assert.True(t, match(LikePrefix{Field: "path", Prefix: "internal/"}, row))
	assert.False(t, match(LikePrefix{Field: "path", Prefix: "cmd/"}, row))
}

func TestMatch_GTDate(t *testing.T) {
	row := map[string]string{"date": "2026-05-01T00:00:00Z"}
	assert.True(t, match(GTDate{Field: "date", Cutoff: "2026-01-01T00:00:00Z"}, row))
	assert.False(t, match(GTDate{Field: "date", Cutoff: "2026-12-01T00:00:00Z"}, row))
}

func TestMatch_AndRequiresAllClauses(t *testing.T) {
	row := map[string]string{"path": "internal/store/store.go", "date": "2026-05-01T00:00:00Z"}
	p := And{Clauses: []Predicate{
		LikePrefix{Field: "path", Prefix: "internal/"},
		GTDate{Field: "date", Cutoff: "2026-01-01T00:00:00Z"},
	}}
	assert.True(t, match(p, row))

	p2 := And{Clauses: []Predicate{
		LikePrefix{Field: "path", Prefix: "internal/"},
		GTDate{Field: "date", Cutoff: "2027-01-01T00:00:00Z"},
	}}
	assert.False(t, match(p2, row))
}

func TestMatch_NilPredicateMatchesEverything(t *testing.T) {
	assert.True(t, match(nil, map[string]string{"x": "y"}))
}

func TestNativeEquality_FindsEqInsideAnd(t *testing.T) {
	p := And{Clauses: []Predicate{
		Eq{Field: "sha", Value: "abc123"},
		LikePrefix{Field: "path", Prefix: "internal/"},
	}}
	field, value, ok := nativeEquality(p)
	assert.True(t, ok)
	assert.Equal(t, "sha", field)
	assert.Equal(t, "abc123", value)
}

func TestNativeEquality_FalseWhenNoEqClause(t *testing.T) {
	p := LikePrefix{Field: "path", Prefix: "internal/"}
	_, _, ok := nativeEquality(p)
	assert.False(t, ok)
}

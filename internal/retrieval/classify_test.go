package retrieval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fixedNow() time.Time {
	return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
}

func TestClassify_Pickaxe(t *testing.T) {
	c := Classify("when was parseConfig introduced", fixedNow())
	assert.Equal(t, StrategyPickaxe, c.Strategy)
	assert.Equal(t, "parseConfig", c.SearchString)
}

func TestClassify_PickaxeFirstIntroduced(t *testing.T) {
	c := Classify("first introduced retryLoop", fixedNow())
	assert.Equal(t, StrategyPickaxe, c.Strategy)
	assert.Equal(t, "retryLoop", c.SearchString)
}

func TestClassify_Blame(t *testing.T) {
	c := Classify("who wrote auth.ts line 42", fixedNow())
	assert.Equal(t, StrategyBlame, c.Strategy)
	assert.Equal(t, "auth.ts", c.File)
	assert.Equal(t, 42, c.Line)
}

func TestClassify_Temporal(t *testing.T) {
	c := Classify("what changed recently", fixedNow())
	assert.Equal(t, StrategyTemporalVector, c.Strategy)
	assert.NotEmpty(t, c.DateCutoff)
}

func TestClassify_StructuredGit(t *testing.T) {
	c := Classify("commits by Alice", fixedNow())
	assert.Equal(t, StrategyStructuredGit, c.Strategy)
	assert.Equal(t, "Alice", c.Author)
}

func TestClassify_StructuredGitFile(t *testing.T) {
	c := Classify("what changed in auth.ts", fixedNow())
	assert.Equal(t, StrategyStructuredGit, c.Strategy)
	assert.Equal(t, "auth.ts", c.File)
}

func TestClassify_DefaultsToVector(t *testing.T) {
	c := Classify("how does authentication work", fixedNow())
	assert.Equal(t, StrategyVector, c.Strategy)
}

package chunk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rubyFixture() string {
	return "require 'json'\n" + padLines("#", 50) + `

class WidgetsController
  def index
    @widgets = Widget.all
  end

  def create
    Widget.create(params)
  end

  def helper_method
    true
  end
end

module Formatter
  def self.format(widget)
    widget.to_s
  end
end
`
}

func TestRubyStrategy_ExtractsDeclarations(t *testing.T) {
	t.Parallel()

	src := rubyFixture()
	dir := t.TempDir()
	abs := writeTemp(t, dir, "app/controllers/widgets_controller.rb", src)

	s, ok := Lookup(abs)
	require.True(t, ok)

	chunks, err := s.ChunkFile(abs, []byte(src), dir, 0)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	byName := map[string]Chunk{}
	for _, c := range chunks {
		byName[c.Name] = c
		assert.Equal(t, "ruby", c.Language)
	}

	require.Contains(t, byName, "WidgetsController")
	assert.Equal(t, TypeClass, byName["WidgetsController"].ChunkType)
}

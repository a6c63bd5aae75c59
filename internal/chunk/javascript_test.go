package chunk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jsFixture = `const express = require('express');
// Padding below keeps this fixture above the small-file threshold.
// line 3
// line 4
// line 5
// line 6
// line 7
// line 8
// line 9
// line 10
// line 11
// line 12
// line 13
// line 14
// line 15
// line 16
// line 17
// line 18
// line 19
// line 20
// line 21
// line 22
// line 23
// line 24
// line 25
// line 26
// line 27
// line 28
// line 29
// line 30

class WidgetController {
  constructor(service) {
    this.service = service;
  }

  list() {
    return this.service.all();
  }
}

function createController(service) {
  return new WidgetController(service);
}

const useWidgets = () => {
  return [];
};

module.exports = { WidgetController, createController };
`

func TestJavaScriptStrategy_ExtractsDeclarations(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	abs := writeTemp(t, dir, "lib/widgets.js", jsFixture)

	s, ok := Lookup(abs)
	require.True(t, ok)

	chunks, err := s.ChunkFile(abs, []byte(jsFixture), dir, 0)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	byName := map[string]Chunk{}
	for _, c := range chunks {
		byName[c.Name] = c
		assert.Equal(t, "javascript", c.Language)
	}

	require.Contains(t, byName, "WidgetController")
	assert.Equal(t, TypeComponent, byName["WidgetController"].ChunkType)

	require.Contains(t, byName, "createController")
	assert.Equal(t, TypeFunction, byName["createController"].ChunkType)

	require.Contains(t, byName, "useWidgets")
	assert.Equal(t, TypeHook, byName["useWidgets"].ChunkType)
}

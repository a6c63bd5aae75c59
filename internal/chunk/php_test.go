package chunk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func phpFixture() string {
	return "<?php\n\nnamespace App\\Controller;\n" + padLines("//", 50) + `

class WidgetController
{
    #[Route("/widgets", methods: ["GET"])]
    public function list()
    {
        return [];
    }

    private function internalCheck()
    {
        return true;
    }
}

interface WidgetRepository
{
    public function find(string $id);
}
`
}

func TestPHPStrategy_ExtractsDeclarations(t *testing.T) {
	t.Parallel()

	src := phpFixture()
	dir := t.TempDir()
	abs := writeTemp(t, dir, "src/Controller/WidgetController.php", src)

	s, ok := Lookup(abs)
	require.True(t, ok)

	chunks, err := s.ChunkFile(abs, []byte(src), dir, 0)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	byName := map[string]Chunk{}
	for _, c := range chunks {
		byName[c.Name] = c
		assert.Equal(t, "php", c.Language)
	}

	require.Contains(t, byName, "WidgetController")
	assert.Equal(t, TypeClass, byName["WidgetController"].ChunkType)

	require.Contains(t, byName, "list")
	assert.Equal(t, TypeRoute, byName["list"].ChunkType)

	require.Contains(t, byName, "internalCheck")
	assert.Equal(t, TypeFunction, byName["internalCheck"].ChunkType)

	require.Contains(t, byName, "WidgetRepository")
	assert.Equal(t, TypeInterface, byName["WidgetRepository"].ChunkType)
}

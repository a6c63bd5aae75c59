package chunk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func javaFixture() string {
	return "package com.example.widgets;\n\nimport org.springframework.web.bind.annotation.*;\n" + padLines("//", 50) + `

public class WidgetController {
    @GetMapping("/widgets")
    public java.util.List<String> list() {
        return java.util.List.of();
    }

    private boolean internalCheck() {
        return true;
    }
}

interface WidgetRepository {
    String find(String id);
}
`
}

func TestJavaStrategy_ExtractsDeclarations(t *testing.T) {
	t.Parallel()

	src := javaFixture()
	dir := t.TempDir()
	abs := writeTemp(t, dir, "src/main/java/com/example/widgets/WidgetController.java", src)

	s, ok := Lookup(abs)
	require.True(t, ok)

	chunks, err := s.ChunkFile(abs, []byte(src), dir, 0)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	byName := map[string]Chunk{}
	for _, c := range chunks {
		byName[c.Name] = c
		assert.Equal(t, "java", c.Language)
	}

	require.Contains(t, byName, "WidgetController")
	assert.Equal(t, TypeClass, byName["WidgetController"].ChunkType)
	assert.True(t, byName["WidgetController"].Exported)

	require.Contains(t, byName, "list")
	assert.Equal(t, TypeRoute, byName["list"].ChunkType)

	require.Contains(t, byName, "internalCheck")
	assert.Equal(t, TypeFunction, byName["internalCheck"].ChunkType)
	assert.False(t, byName["internalCheck"].Exported)

	require.Contains(t, byName, "WidgetRepository")
	assert.Equal(t, TypeInterface, byName["WidgetRepository"].ChunkType)
}

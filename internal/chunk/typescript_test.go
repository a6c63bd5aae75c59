package chunk

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tsFixture = `import { Injectable } from '@framework/core';
import type { User } from './types';
// Padding below keeps this fixture above the small-file threshold so the
// parser is exercised instead of taking the whole-file shortcut.
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

export interface UserRepository {
  findById(id: string): Promise<User | null>;
}

export class UserService {
  private users: User[] = [];

  constructor(private repo: UserRepository) {}

  async findById(id: string): Promise<User | null> {
    return this.repo.findById(id);
  }

  listUsers(): User[] {
    return this.users;
  }
}

export function createService(repo: UserRepository): UserService {
  return new UserService(repo);
}

export const useUserCount = () => {
  return 0;
};

export const Greeting = () => {
  return null;
};

export type UserID = string;
`

func TestTypeScriptStrategy_ExtractsDeclarations(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	abs := writeTemp(t, dir, "src/user_service.ts", tsFixture)

	s, ok := Lookup(abs)
	require.True(t, ok)

	chunks, err := s.ChunkFile(abs, []byte(tsFixture), dir, 0)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	byName := map[string]Chunk{}
	for _, c := range chunks {
		byName[c.Name] = c
	}

	require.Contains(t, byName, "UserService")
	assert.Equal(t, TypeComponent, byName["UserService"].ChunkType, "PascalCase class name should classify as component")

	require.Contains(t, byName, "UserRepository")
	assert.Equal(t, TypeInterface, byName["UserRepository"].ChunkType)

	require.Contains(t, byName, "UserID")
	assert.Equal(t, TypeType, byName["UserID"].ChunkType)

	require.Contains(t, byName, "createService")
	assert.Equal(t, TypeFunction, byName["createService"].ChunkType)

	require.Contains(t, byName, "useUserCount")
	assert.Equal(t, TypeHook, byName["useUserCount"].ChunkType)

	require.Contains(t, byName, "Greeting")
	assert.Equal(t, TypeComponent, byName["Greeting"].ChunkType)

	for _, c := range chunks {
		assert.Equal(t, "src/user_service.ts", c.Path)
		assert.Equal(t, "typescript", c.Language)
	}
}

func TestTypeScriptStrategy_SmallFileWholeChunk(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := "export const x = 1;\n"
	abs := writeTemp(t, dir, "tiny.ts", src)

	s, _ := Lookup(abs)
	chunks, err := s.ChunkFile(abs, []byte(src), dir, 0)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, TypeOther, chunks[0].ChunkType)
}

func TestTypeScriptStrategy_FrameworkRoleFromPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := `export default function Page() {
  return null;
}

export function helperOne() {}
export function helperTwo() {}
export function helperThree() {}
export function helperFour() {}
export function helperFive() {}
export function helperSix() {}
export function helperSeven() {}
export function helperEight() {}
export function helperNine() {}
export function helperTen() {}
export function helperEleven() {}
export function helperTwelve() {}
export function helperThirteen() {}
export function helperFourteen() {}
export function helperFifteen() {}
export function helperSixteen() {}
export function helperSeventeen() {}
export function helperEighteen() {}
export function helperNineteen() {}
export function helperTwenty() {}
export function helperTwentyOne() {}
export function helperTwentyTwo() {}
export function helperTwentyThree() {}
export function helperTwentyFour() {}
export function helperTwentyFive() {}
export function helperTwentySix() {}
export function helperTwentySeven() {}
export function helperTwentyEight() {}
export function helperTwentyNine() {}
export function helperThirty() {}
export function helperThirtyOne() {}
export function helperThirtyTwo() {}
export function helperThirtyThree() {}
export function helperThirtyFour() {}
export function helperThirtyFive() {}
export function helperThirtySix() {}
export function helperThirtySeven() {}
export function helperThirtyEight() {}
export function helperThirtyNine() {}
export function helperForty() {}
export function helperFortyOne() {}
export function helperFortyTwo() {}
export function helperFortyThree() {}
export function helperFortyFour() {}
export function helperFortyFive() {}
export function helperFortySix() {}
export function helperFortySeven() {}
export function helperFortyEight() {}
export function helperFortyNine() {}
export function helperFifty() {}
`
	abs := writeTemp(t, dir, "app/dashboard/page.tsx", src)

	s, _ := Lookup(abs)
	chunks, err := s.ChunkFile(abs, []byte(src), dir, 0)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.Equal(t, RolePage, c.FrameworkRole)
	}
}

func TestTypeScriptStrategy_APIRouteMethodChunksOnly(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := `import { NextResponse } from 'next/server';

export async function GET(request: Request) {
  return NextResponse.json({ items: [] });
}

export async function POST(request: Request) {
  return NextResponse.json({ ok: true });
}
`
	abs := writeTemp(t, dir, "app/api/items/route.ts", src)

	s, _ := Lookup(abs)
	chunks, err := s.ChunkFile(abs, []byte(src), dir, 0)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	byName := map[string]Chunk{}
	for _, c := range chunks {
		byName[c.Name] = c
		assert.Equal(t, TypeRoute, c.ChunkType)
		assert.Equal(t, RoleAPIRoute, c.FrameworkRole)
	}
	assert.Contains(t, byName, "GET")
	assert.Contains(t, byName, "POST")
}

func TestTypeScriptStrategy_PageForcedWholeFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var b strings.Builder
	b.WriteString("export default function Page() {\n  return null;\n}\n\n")
	for i := 0; i < 50; i++ {
		b.WriteString(fmt.Sprintf("export function helper%d() {}\n", i))
	}
	abs := writeTemp(t, dir, "app/dashboard/page.tsx", b.String())

	s, _ := Lookup(abs)
	chunks, err := s.ChunkFile(abs, []byte(b.String()), dir, 0)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, TypeOther, chunks[0].ChunkType)
	assert.Equal(t, RolePage, chunks[0].FrameworkRole)
}

func TestTypeScriptStrategy_RoleRequiresAppAncestor(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := "export default function Page() {\n  return null;\n}\n"
	abs := writeTemp(t, dir, "src/components/page.tsx", src)

	role := detectJSFrameworkRole(repoRelative(abs, dir))
	assert.Equal(t, RoleNone, role)
}

func TestTypeScriptStrategy_UnparsableDoesNotError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	// Binary garbage; tree-sitter error-recovers rather than failing, but
	// this exercises the code path without asserting a specific outcome
	// beyond "no panic, no error".
	src := []byte{0x00, 0x01, 0x02, 0xFF, 0xFE}
	abs := writeTemp(t, dir, "garbage.ts", string(src))

	s, _ := Lookup(abs)
	_, err := s.ChunkFile(abs, src, dir, 0)
	assert.NoError(t, err)
}

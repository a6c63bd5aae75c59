// Command codetrail indexes a repository's source tree and commit
// history into a local vector store, then serves semantic search,
// structured git queries, and drift-aware file assessment over it.
package main

import "github.com/codetrail-dev/codetrail/internal/cli"

func main() {
	cli.Execute()
}

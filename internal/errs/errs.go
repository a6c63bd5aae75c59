// Package errs defines the structured error kinds shared by every layer of
// codetrail. Kinds are sentinel errors, not exception types: callers wrap
// them with fmt.Errorf("%w: ...") and match with errors.Is.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRepoNotFound indicates the configured repository path does not exist.
	ErrRepoNotFound = errors.New("repository not found")

	// ErrNotAGitRepo indicates the path exists but is not a git worktree.
	ErrNotAGitRepo = errors.New("not a git repository")

	// ErrConfigParse indicates the config file could not be parsed. Recoverable:
	// callers should warn and fall back to defaults rather than abort.
	ErrConfigParse = errors.New("config parse error")

	// ErrEmbeddingUnavailable indicates the embedding provider failed its
	// health check or could not be reached.
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")

	// ErrDimensionMismatch indicates the embedding dimension pinned by index
	// state does not match what the vector store holds. Forces full re-index.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrBatchFailure indicates an embedding sub-batch failed irrecoverably
	// after binary split and progressive truncation were exhausted.
	ErrBatchFailure = errors.New("embedding batch failure")

	// ErrStoreMissingTable indicates a query targeted a table that has not
	// been created by a prior index run.
	ErrStoreMissingTable = errors.New("store table missing")

	// ErrUnparsableFile indicates a single file could not be parsed; the file
	// is skipped and a counter incremented, never fatal.
	ErrUnparsableFile = errors.New("unparsable file")

	// ErrUnreadableCommitBlock indicates a malformed commit record was
	// encountered in the git log stream; the commit is skipped.
	ErrUnreadableCommitBlock = errors.New("unreadable commit block")
)

// Kind categorizes an error for CLI-level exit handling and remediation
// hints. It is distinct from the sentinel errors above, which are matched
// with errors.Is; Kind is attached to an error for display purposes only.
type Kind string

const (
	KindRepoNotFound        Kind = "repo_not_found"
	KindNotAGitRepo         Kind = "not_a_git_repo"
	KindConfigParse         Kind = "config_parse_error"
	KindEmbeddingUnavail    Kind = "embedding_unavailable"
	KindDimensionMismatch   Kind = "embedding_dimension_mismatch"
	KindBatchFailure        Kind = "embedding_batch_failure"
	KindStoreMissingTable   Kind = "store_missing_table"
	KindUnparsableFile      Kind = "unparsable_file"
	KindUnreadableCommit    Kind = "unreadable_commit_block"
	KindChildPipeClosed     Kind = "child_process_pipe_closed_by_us"
	KindClassifierFellBack  Kind = "query_classifier_fell_back_to_vector"
)

// Remediated wraps an error with a Kind and an optional one-line hint the
// CLI can append to its error output.
type Remediated struct {
	Kind Kind
	Hint string
	Err  error
}

func (r *Remediated) Error() string {
	if r.Hint == "" {
		return r.Err.Error()
	}
	return fmt.Sprintf("%s (%s)", r.Err.Error(), r.Hint)
}

func (r *Remediated) Unwrap() error { return r.Err }

// WithHint attaches a kind and remediation hint to an existing error.
func WithHint(kind Kind, hint string, err error) error {
	if err == nil {
		return nil
	}
	return &Remediated{Kind: kind, Hint: hint, Err: err}
}

// HintFor returns a one-line remediation tip for a Kind, or "" if none
// applies. The CLI appends this to error output when present.
func HintFor(kind Kind) string {
	switch kind {
	case KindEmbeddingUnavail:
		return "check OLLAMA_URL/OLLAMA_BASE_URL or OPENAI_API_KEY and that the embedding host is reachable"
	case KindStoreMissingTable:
		return "run `codetrail index` or `codetrail git-index` first"
	case KindDimensionMismatch:
		return "embedding dimension changed; re-run with --full to rebuild the index"
	case KindNotAGitRepo:
		return "run from inside a git worktree, or pass --repo"
	default:
		return ""
	}
}

// JoinErrors combines multiple errors into one, formatted as a bulleted
// list. A single error is returned unwrapped.
func JoinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return fmt.Errorf("multiple errors:\n  - %s", strings.Join(msgs, "\n  - "))
}

package cli

import (
	"errors"

	"github.com/codetrail-dev/codetrail/internal/errs"
)

// hintFor extracts a one-line remediation tip from err, when it (or
// something it wraps) carries an errs.Remediated kind, per §7's "the CLI
// maps these to a non-zero exit and ... appends a one-line tip" policy.
func hintFor(err error) string {
	var r *errs.Remediated
	if errors.As(err, &r) {
		if r.Hint != "" {
			return r.Hint
		}
		return errs.HintFor(r.Kind)
	}
	return ""
}

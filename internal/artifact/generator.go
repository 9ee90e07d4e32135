// Package artifact renders a trained vocabulary into a standalone POSIX
// shell script that replays recorded output, and parses such scripts back
// for inspection and round-trip verification.
package artifact

import (
	"bytes"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/mrcostanzo/cmdmock/internal/vocab"
)

// Logf is the diagnostic sink warnings are written to. Nil discards them.
type Logf func(format string, args ...any)

// Metadata is embedded in the generated script's header comment. All
// fields are supplied by the caller so generation stays deterministic
// under test.
type Metadata struct {
	// Version is the generating tool's version string.
	Version string

	// GeneratedAt is the generation timestamp, rendered in RFC 3339 UTC.
	GeneratedAt time.Time

	// Caller identifies who generated the artifact, as "user@host".
	Caller string

	// SessionID is the training session's UUID.
	SessionID string

	// Invocation is the full command line the trainer was invoked with.
	Invocation []string
}

// WriteError reports an I/O failure persisting the artifact. It is fatal:
// the trainer exits non-zero after logging it.
type WriteError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *WriteError) Error() string {
	return fmt.Sprintf("write artifact %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *WriteError) Unwrap() error {
	return e.Err
}

// CallerIdentity returns "user@host" for the current process, falling back
// to "unknown" for whichever half cannot be resolved. Identity lookup
// failures are cosmetic and never fatal.
func CallerIdentity() string {
	name := "unknown"
	if u, err := user.Current(); err == nil && u.Username != "" {
		name = u.Username
	}
	host := "unknown"
	if h, err := os.Hostname(); err == nil && h != "" {
		host = h
	}
	return name + "@" + host
}

// DefaultPath returns the artifact filename for a root command: the
// command's base name with a ".sh" extension, in the current directory.
func DefaultPath(root string) string {
	return filepath.Base(root) + ".sh"
}

// dispatch is the fixed tail of every generated script. It recomputes the
// invocation key exactly as vocab.InvocationKey does during training: the
// NUL-terminated argument stream hashed with SHA-256, with zero arguments
// hashing empty input. @ROOT@ is substituted at generation time.
const dispatch = `digest() {
    if command -v sha256sum >/dev/null 2>&1; then
        sha256sum
    else
        shasum -a 256
    fi
}

if [ "$#" -eq 0 ]; then
    key=$(printf '' | digest)
else
    key=$(printf '%s\0' "$@" | digest)
fi
key=${key%% *}

out_key=$(printf '%s' "$CALL_MAP" | awk -v k="$key" '$1 == k { print $2 }')
if [ -z "$out_key" ]; then
    echo "@ROOT@: unsupported argument sequence: $*" >&2
    echo "retrain with cmdmock to record this invocation" >&2
    exit 1
fi

printf '%s' "$OUTPUTS" | awk -v k="$out_key" '$1 == k { print $2 }' | base64 -d
`

// Generate renders the replay script for a trained store: shebang,
// metadata header, the two embedded lookup tables, and the dispatch logic.
// Output is deterministic for a given store and metadata.
//
// Matched output is decoded by base64 straight to stdout, so the replayed
// bytes are exactly the captured bytes with no added trailing newline.
func Generate(st *vocab.Store, meta Metadata) []byte {
	callMap, outputs := st.Serialize()
	root := st.Root()

	var b bytes.Buffer
	b.WriteString("#!/bin/sh\n")
	fmt.Fprintf(&b, "# Generated by cmdmock v%s\n", meta.Version)
	fmt.Fprintf(&b, "# on %s by %s (session %s)\n",
		meta.GeneratedAt.UTC().Format(time.RFC3339), meta.Caller, meta.SessionID)
	fmt.Fprintf(&b, "# invocation: %q\n", strings.Join(meta.Invocation, " "))
	b.WriteString("#\n")
	fmt.Fprintf(&b, "# Replay mock for '%s': hashes its argument sequence and prints the\n", root)
	b.WriteString("# output recorded for that exact sequence during training.\n")
	b.WriteString("\n")
	fmt.Fprintf(&b, "CALL_MAP='\n%s'\n\n", callMap)
	fmt.Fprintf(&b, "OUTPUTS='\n%s'\n\n", outputs)
	b.WriteString(strings.ReplaceAll(dispatch, "@ROOT@", root))
	return b.Bytes()
}

// Write persists the script and marks it executable.
//
// A write failure returns a *WriteError and is fatal to the caller. A
// chmod failure is only logged: on filesystems without a permission bit
// the artifact still works when passed to sh explicitly.
func Write(path string, content []byte, logf Logf) error {
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	if err := os.Chmod(path, 0o755); err != nil && logf != nil {
		logf("could not mark %s executable: %v", path, err)
	}
	return nil
}

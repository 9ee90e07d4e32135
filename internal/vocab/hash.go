package vocab

import (
	"crypto/sha256"
	"encoding/hex"
)

// Key is a hex-encoded SHA-256 digest used to index invocations and outputs.
type Key string

// Canonicalize encodes an argument sequence as the exact byte stream the
// generated replay script reproduces at runtime with `printf '%s\0' "$@"`:
// each token followed by a NUL byte. The empty sequence encodes to zero
// bytes (the script special-cases $# = 0 to hash empty input).
//
// Argv tokens cannot contain NUL, so the encoding is injective: adjacent
// tokens like ["ab","c"] and ["a","bc"] produce distinct encodings.
//
// Do not change this encoding without changing the dispatch logic in the
// artifact template to match; the two must agree byte-for-byte or replay
// lookups will never hit.
func Canonicalize(args []string) []byte {
	if len(args) == 0 {
		return nil
	}
	n := 0
	for _, a := range args {
		n += len(a) + 1
	}
	buf := make([]byte, 0, n)
	for _, a := range args {
		buf = append(buf, a...)
		buf = append(buf, 0)
	}
	return buf
}

// Digest computes the hex-encoded SHA-256 of data.
//
// No domain-separation prefix is used: the replay script recomputes this
// digest with stock sha256sum/shasum, which hash their stdin as-is.
func Digest(data []byte) Key {
	sum := sha256.Sum256(data)
	return Key(hex.EncodeToString(sum[:]))
}

// InvocationKey computes the content-addressed key for an argument sequence.
// The root command is not part of the key; all invocations in a store share
// the same root.
func InvocationKey(args []string) Key {
	return Digest(Canonicalize(args))
}

// OutputKey computes the content-addressed key for captured output bytes.
func OutputKey(output []byte) Key {
	return Digest(output)
}

package vocab

import (
	"encoding/base64"
	"fmt"
	"sort"
	"strings"
)

// Runner executes a full invocation (root command plus arguments) and
// returns its captured standard output. Standard error is never part of
// the returned bytes.
type Runner interface {
	Run(invocation []string) ([]byte, error)
}

// Logf is the diagnostic sink the store writes warnings to. Components
// receive it explicitly; there is no package-level logger.
type Logf func(format string, args ...any)

// Options configures a Store.
type Options struct {
	// Logf receives drift warnings and debug notes. Nil discards them.
	Logf Logf
}

// Summary holds the store's entry counts for diagnostics.
type Summary struct {
	Invocations int `json:"invocations"`
	Outputs     int `json:"outputs"`
	MapEntries  int `json:"map_entries"`
}

// Store accumulates the deduplicated vocabulary of one command: which
// argument sequences have been observed, what outputs they produced, and
// which output each invocation most recently yielded.
//
// A Store is not safe for concurrent use. Training is single-threaded by
// design: one invocation at a time, one child process per AddInvocation.
type Store struct {
	root   string
	runner Runner
	logf   Logf

	invocations map[Key][]string
	outputs     map[Key][]byte
	callMap     map[Key]Key
}

// New creates an empty store bound to the root command. The runner is
// invoked once per AddInvocation call; it may be nil if the store is only
// fed pre-captured observations via Record.
func New(root string, runner Runner, opts Options) *Store {
	return &Store{
		root:        root,
		runner:      runner,
		logf:        opts.Logf,
		invocations: make(map[Key][]string),
		outputs:     make(map[Key][]byte),
		callMap:     make(map[Key]Key),
	}
}

// Root returns the command the store is bound to.
func (s *Store) Root() string {
	return s.root
}

// MatchesRoot reports whether an invocation's leading token names the root
// command.
//
// Matching policy: exact match, or path-suffix match (the token ends with
// "/" + root) so that full-path invocations like /usr/bin/date train a
// store bound to "date". This is the lenient of the two plausible policies;
// it is deliberate and tested, not incidental.
func MatchesRoot(root, tok string) bool {
	return tok == root || strings.HasSuffix(tok, "/"+root)
}

// AddInvocation validates the invocation, runs it through the store's
// runner to capture its output, and records the observation.
//
// The full invocation must be non-empty and its first token must match the
// root command (see matchesRoot); otherwise a *ValidationError is returned
// and the store is unchanged. Runner failures (typically a *SpawnError from
// the runner package) are returned as-is.
func (s *Store) AddInvocation(fullInvocation []string) error {
	if len(fullInvocation) == 0 || !MatchesRoot(s.root, fullInvocation[0]) {
		return &ValidationError{Root: s.root, Invocation: fullInvocation}
	}

	output, err := s.runner.Run(fullInvocation)
	if err != nil {
		return err
	}

	s.Record(fullInvocation[1:], output)
	return nil
}

// Record stores one (argument sequence, output) observation without
// spawning anything. AddInvocation delegates here after capturing output;
// persistence layers use it to rebuild a store from saved rows.
//
// Re-recording an identical observation is a no-op on all three maps
// (idempotent). Recording a known argument sequence with different output
// logs a drift warning and repoints the call map at the newest output; the
// older output stays in the outputs map.
func (s *Store) Record(args []string, output []byte) {
	invKey := InvocationKey(args)
	outKey := OutputKey(output)

	if prev, seen := s.callMap[invKey]; seen && prev != outKey {
		s.warnf("new output for equivalent invocation %v: does %q print the time?", args, s.root)
	}

	if _, ok := s.outputs[outKey]; !ok {
		s.outputs[outKey] = append([]byte(nil), output...)
	}
	if _, ok := s.invocations[invKey]; !ok {
		s.invocations[invKey] = append([]string(nil), args...)
	}

	// Last write wins: the newest observation is the one replayed.
	s.callMap[invKey] = outKey
}

// Summarize returns the store's entry counts. Pure; no side effects.
func (s *Store) Summarize() Summary {
	return Summary{
		Invocations: len(s.invocations),
		Outputs:     len(s.outputs),
		MapEntries:  len(s.callMap),
	}
}

// Serialize renders the call map and outputs tables as deterministic
// line-oriented text, sorted by key. Each call map line is
// "<invocationKey> <outputKey>"; each outputs line is
// "<outputKey> <base64(content)>" with standard, unwrapped base64 so every
// entry stays on one line regardless of the captured bytes.
//
// The tables are valid inside single-quoted POSIX shell literals (keys are
// hex, values are hex or base64) and round-trip through
// artifact.ParseTables.
func (s *Store) Serialize() (callMapTable, outputsTable string) {
	var cm strings.Builder
	for _, k := range sortedKeys(s.callMap) {
		fmt.Fprintf(&cm, "%s %s\n", k, s.callMap[k])
	}

	var out strings.Builder
	for _, k := range sortedKeys(s.outputs) {
		fmt.Fprintf(&out, "%s %s\n", k, base64.StdEncoding.EncodeToString(s.outputs[k]))
	}

	return cm.String(), out.String()
}

// Invocations returns a copy of the invocation-key → argument-sequence map.
func (s *Store) Invocations() map[Key][]string {
	m := make(map[Key][]string, len(s.invocations))
	for k, v := range s.invocations {
		m[k] = append([]string(nil), v...)
	}
	return m
}

// Outputs returns a copy of the output-key → content map.
func (s *Store) Outputs() map[Key][]byte {
	m := make(map[Key][]byte, len(s.outputs))
	for k, v := range s.outputs {
		m[k] = append([]byte(nil), v...)
	}
	return m
}

// CallMap returns a copy of the invocation-key → output-key map.
func (s *Store) CallMap() map[Key]Key {
	m := make(map[Key]Key, len(s.callMap))
	for k, v := range s.callMap {
		m[k] = v
	}
	return m
}

func (s *Store) warnf(format string, args ...any) {
	if s.logf != nil {
		s.logf(format, args...)
	}
}

func sortedKeys[V any](m map[Key]V) []Key {
	keys := make([]Key, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

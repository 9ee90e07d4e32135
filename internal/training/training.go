// Package training acquires invocations to train from: a positional
// command line, a line-oriented training file, or a structured YAML
// session file.
package training

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mrcostanzo/cmdmock/internal/vocab"
)

// Session is one training session: a root command and the argument
// sequences to train it with. Invocations exclude the root token; an empty
// sequence trains the bare command.
type Session struct {
	Root        string          `yaml:"root"`
	Invocations [][]string      `yaml:"invocations"`
	Artifact    *ArtifactConfig `yaml:"artifact,omitempty"`
}

// ArtifactConfig carries optional generation overrides from a session file.
type ArtifactConfig struct {
	// Out overrides the artifact output path.
	Out string `yaml:"out,omitempty"`
}

// FromArgs builds a session from a positional invocation as given on the
// trainer's own command line: the first token is the root, the rest are
// its arguments.
func FromArgs(argv []string) (*Session, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("no invocation given")
	}
	return &Session{
		Root:        argv[0],
		Invocations: [][]string{append([]string(nil), argv[1:]...)},
	}, nil
}

// ReadFile parses a line-oriented training file. Each line is
// whitespace-split into tokens. The first line's first token fixes the
// root command for the whole session; its remaining tokens, if any, form
// the first trained invocation. Every later non-blank line is one
// invocation: if its first token names the root it is taken whole,
// otherwise all its tokens are treated as arguments.
//
// A file whose first line is blank is rejected: no root command can be
// determined.
func ReadFile(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read training file: %w", err)
	}

	lines := strings.Split(string(data), "\n")
	first := strings.Fields(lines[0])
	if len(first) == 0 {
		return nil, fmt.Errorf("training file %s: first line is empty, cannot determine root command", path)
	}

	s := &Session{Root: first[0]}
	if len(first) > 1 {
		s.Invocations = append(s.Invocations, first[1:])
	}

	for _, line := range lines[1:] {
		tokens := strings.Fields(line)
		if len(tokens) == 0 {
			continue
		}
		if vocab.MatchesRoot(s.Root, tokens[0]) {
			s.Invocations = append(s.Invocations, tokens[1:])
		} else {
			s.Invocations = append(s.Invocations, tokens)
		}
	}

	return s, nil
}

// ReadSession parses a YAML session file. See session_schema.cue for the
// file's shape; ValidateSession checks a file against that schema without
// loading it.
func ReadSession(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}

	var s Session
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse session file %s: %w", path, err)
	}
	if s.Root == "" {
		return nil, fmt.Errorf("session file %s: root is required", path)
	}
	return &s, nil
}

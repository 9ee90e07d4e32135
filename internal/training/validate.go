package training

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cueyaml "cuelang.org/go/encoding/yaml"
)

//go:embed session_schema.cue
var sessionSchema string

// ValidateSession checks a YAML session file against the embedded CUE
// schema without loading it for training. It returns one error per schema
// violation, or nil if the file is valid.
func ValidateSession(path string) []error {
	data, err := os.ReadFile(path)
	if err != nil {
		return []error{fmt.Errorf("read session file: %w", err)}
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(sessionSchema).LookupPath(cue.ParsePath("#Session"))
	if err := schema.Err(); err != nil {
		return []error{fmt.Errorf("session schema: %w", err)}
	}

	file, err := cueyaml.Extract(path, data)
	if err != nil {
		return []error{fmt.Errorf("parse session file %s: %w", path, err)}
	}
	value := ctx.BuildFile(file)
	if err := value.Err(); err != nil {
		return []error{fmt.Errorf("build session file %s: %w", path, err)}
	}

	if err := schema.Unify(value).Validate(cue.Concrete(true)); err != nil {
		var errs []error
		for _, e := range cueerrors.Errors(err) {
			errs = append(errs, e)
		}
		return errs
	}
	return nil
}

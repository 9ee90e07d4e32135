package artifact

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/mrcostanzo/cmdmock/internal/vocab"
)

// ParseTables reads the CALL_MAP and OUTPUTS literals back out of a
// generated script. It is the round-trip counterpart of vocab.Serialize:
// parsing a freshly generated artifact reconstructs maps equal to the
// store's own.
//
// Both tables must be present, every call map entry must reference a known
// output, and malformed lines are errors, so a tampered or truncated
// artifact is reported rather than half-loaded.
func ParseTables(script []byte) (map[vocab.Key]vocab.Key, map[vocab.Key][]byte, error) {
	callMap := make(map[vocab.Key]vocab.Key)
	outputs := make(map[vocab.Key][]byte)
	var sawCallMap, sawOutputs bool

	lines := strings.Split(string(script), "\n")
	for i := 0; i < len(lines); i++ {
		switch lines[i] {
		case "CALL_MAP='":
			sawCallMap = true
			for i++; i < len(lines) && lines[i] != "'"; i++ {
				fields := strings.Fields(lines[i])
				if len(fields) != 2 {
					return nil, nil, fmt.Errorf("malformed call map line %d: %q", i+1, lines[i])
				}
				callMap[vocab.Key(fields[0])] = vocab.Key(fields[1])
			}
		case "OUTPUTS='":
			sawOutputs = true
			for i++; i < len(lines) && lines[i] != "'"; i++ {
				key, enc, ok := strings.Cut(lines[i], " ")
				if !ok || key == "" {
					return nil, nil, fmt.Errorf("malformed outputs line %d: %q", i+1, lines[i])
				}
				content, err := base64.StdEncoding.DecodeString(enc)
				if err != nil {
					return nil, nil, fmt.Errorf("outputs line %d: %w", i+1, err)
				}
				outputs[vocab.Key(key)] = content
			}
		}
	}

	if !sawCallMap || !sawOutputs {
		return nil, nil, fmt.Errorf("script is missing embedded lookup tables")
	}
	for invKey, outKey := range callMap {
		if _, ok := outputs[outKey]; !ok {
			return nil, nil, fmt.Errorf("call map entry %s references unknown output %s", invKey, outKey)
		}
	}

	return callMap, outputs, nil
}

package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/mrcostanzo/cmdmock/internal/artifact"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
}

// InspectResult summarizes an artifact's embedded tables.
type InspectResult struct {
	Path        string            `json:"path"`
	Invocations int               `json:"invocations"`
	Outputs     int               `json:"outputs"`
	MapEntries  int               `json:"map_entries"`
	CallMap     map[string]string `json:"call_map"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect <artifact>",
		Short: "Parse a replay artifact's embedded tables",
		Long: `Parse the lookup tables embedded in a generated replay artifact and
report what it can replay. Fails if the tables are missing, malformed, or
reference outputs that are not embedded.

Example:
  cmdmock inspect ./date.sh`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(opts, args[0], cmd)
		},
	}

	return cmd
}

func runInspect(opts *InspectOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	script, err := os.ReadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read artifact", err)
	}
	callMap, outputs, err := artifact.ParseTables(script)
	if err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("not a valid replay artifact: %s", path), err)
	}

	result := InspectResult{
		Path:        path,
		Invocations: len(callMap),
		Outputs:     len(outputs),
		MapEntries:  len(callMap),
		CallMap:     make(map[string]string, len(callMap)),
	}
	for invKey, outKey := range callMap {
		result.CallMap[string(invKey)] = string(outKey)
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "%s: %d invocation(s) mapped to %d output(s) via %d map entries\n",
		path, result.Invocations, result.Outputs, result.MapEntries)
	if formatter.Verbose {
		keys := make([]string, 0, len(result.CallMap))
		for k := range result.CallMap {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(formatter.Writer, "  %s -> %s\n", k, result.CallMap[k])
		}
	}
	return nil
}

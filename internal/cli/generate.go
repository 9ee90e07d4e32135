package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mrcostanzo/cmdmock/internal/artifact"
	"github.com/mrcostanzo/cmdmock/internal/vocab"
	"github.com/mrcostanzo/cmdmock/internal/vocabdb"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	Database string
	Out      string
}

// GenerateResult holds the outcome of artifact generation.
type GenerateResult struct {
	Root        string `json:"root"`
	Invocations int    `json:"invocations"`
	Artifact    string `json:"artifact"`
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a replay artifact from a persisted vocabulary",
		Long: `Generate a replay artifact from a vocabulary persisted with
'cmdmock train --db', without re-running any commands.

Examples:
  cmdmock generate --db ./ls.db
  cmdmock generate --db ./ls.db -o mocks/ls.sh`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the vocabulary database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "artifact output path (default <command>.sh)")

	return cmd
}

func runGenerate(opts *GenerateOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	ctx := context.Background()

	db, err := vocabdb.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open vocabulary database", err)
	}
	defer db.Close()

	// Generation never spawns, so the store needs no live runner.
	st, err := db.Load(ctx, nil, vocab.Options{Logf: formatter.Warnf})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load vocabulary", err)
	}

	out := opts.Out
	if out == "" {
		out = artifact.DefaultPath(st.Root())
	}
	meta := artifact.Metadata{
		Version:     Version,
		GeneratedAt: time.Now().UTC(),
		Caller:      artifact.CallerIdentity(),
		SessionID:   uuid.Must(uuid.NewV7()).String(),
		Invocation:  os.Args,
	}
	if err := artifact.Write(out, artifact.Generate(st, meta), artifact.Logf(formatter.Warnf)); err != nil {
		return WrapExitError(ExitCommandError, "failed to write artifact", err)
	}

	result := GenerateResult{
		Root:        st.Root(),
		Invocations: st.Summarize().Invocations,
		Artifact:    out,
	}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "Wrote %s (%d invocation(s) of %q)\n", result.Artifact, result.Invocations, result.Root)
	return nil
}

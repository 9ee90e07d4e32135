package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mrcostanzo/cmdmock/internal/artifact"
	"github.com/mrcostanzo/cmdmock/internal/runner"
	"github.com/mrcostanzo/cmdmock/internal/training"
	"github.com/mrcostanzo/cmdmock/internal/vocab"
	"github.com/mrcostanzo/cmdmock/internal/vocabdb"
)

// TrainOptions holds flags for the train command.
type TrainOptions struct {
	*RootOptions
	TrainingFile string
	SessionFile  string
	Database     string
	Out          string
	NoArtifact   bool
}

// TrainResult holds the outcome of a training run.
type TrainResult struct {
	Root        string `json:"root"`
	SessionID   string `json:"session_id"`
	Invocations int    `json:"invocations"`
	Outputs     int    `json:"outputs"`
	MapEntries  int    `json:"map_entries"`
	Artifact    string `json:"artifact,omitempty"`
}

// NewTrainCommand creates the train command.
func NewTrainCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TrainOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "train [command [args...]]",
		Short: "Run real invocations and record their output",
		Long: `Run one or more real command invocations, record their output in a
vocabulary, and generate a replay artifact.

Invocations come from a positional command line, a line-oriented training
file (-f), or a YAML session file (--session). In a training file, the
first line's first token fixes the root command for the whole session.

With --db, the vocabulary is also persisted to SQLite and merged with what
earlier sessions recorded, so the artifact grows across runs.

Examples:
  cmdmock train date
  cmdmock train ls -al
  cmdmock train -f invocations.txt --db ./ls.db
  cmdmock train --session session.yaml -o mocks/date.sh`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrain(opts, args, cmd)
		},
	}

	// Stop flag parsing at the first positional token so the trained
	// command's own flags (e.g. `train ls -al`) pass through untouched.
	cmd.Flags().SetInterspersed(false)

	cmd.Flags().StringVarP(&opts.TrainingFile, "file", "f", "", "training file with line-separated invocations")
	cmd.Flags().StringVar(&opts.SessionFile, "session", "", "YAML session file")
	cmd.Flags().StringVar(&opts.Database, "db", "", "persist the vocabulary to this SQLite database")
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "artifact output path (default <command>.sh)")
	cmd.Flags().BoolVar(&opts.NoArtifact, "no-artifact", false, "train only, skip artifact generation")

	return cmd
}

func runTrain(opts *TrainOptions, args []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	ctx := context.Background()

	session, err := resolveSession(opts, args)
	if err != nil {
		return err
	}
	formatter.VerboseLog("Training %d invocation(s) of %q", len(session.Invocations), session.Root)

	run := &runner.Exec{Stderr: cmd.ErrOrStderr()}
	vocabOpts := vocab.Options{Logf: formatter.Warnf}

	var db *vocabdb.DB
	st := vocab.New(session.Root, run, vocabOpts)
	if opts.Database != "" {
		db, err = vocabdb.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open vocabulary database", err)
		}
		defer db.Close()

		have, err := db.Root(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read vocabulary database", err)
		}
		if have != "" && have != session.Root {
			return WrapExitError(ExitCommandError, "cannot train",
				&vocabdb.RootMismatchError{Have: have, Want: session.Root})
		}
		if have != "" {
			st, err = db.Load(ctx, run, vocabOpts)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load vocabulary", err)
			}
			formatter.VerboseLog("Loaded %d existing invocation(s) from %s", st.Summarize().Invocations, opts.Database)
		}
	}

	for _, invArgs := range session.Invocations {
		full := append([]string{session.Root}, invArgs...)
		formatter.VerboseLog("Invoking %v", full)
		if err := st.AddInvocation(full); err != nil {
			return WrapExitError(ExitCommandError, "training failed", err)
		}
	}

	summary := st.Summarize()
	formatter.VerboseLog("%d invocation(s) mapped to %d output(s) via %d map entries",
		summary.Invocations, summary.Outputs, summary.MapEntries)

	sessionID := uuid.Must(uuid.NewV7()).String()
	if db != nil {
		if err := db.Save(ctx, st, sessionID); err != nil {
			return WrapExitError(ExitCommandError, "failed to save vocabulary", err)
		}
		formatter.VerboseLog("Saved vocabulary to %s (session %s)", opts.Database, sessionID)
	}

	result := TrainResult{
		Root:        session.Root,
		SessionID:   sessionID,
		Invocations: summary.Invocations,
		Outputs:     summary.Outputs,
		MapEntries:  summary.MapEntries,
	}

	if !opts.NoArtifact {
		out := opts.Out
		if out == "" && session.Artifact != nil {
			out = session.Artifact.Out
		}
		if out == "" {
			out = artifact.DefaultPath(session.Root)
		}
		meta := artifact.Metadata{
			Version:     Version,
			GeneratedAt: time.Now().UTC(),
			Caller:      artifact.CallerIdentity(),
			SessionID:   sessionID,
			Invocation:  os.Args,
		}
		if err := artifact.Write(out, artifact.Generate(st, meta), artifact.Logf(formatter.Warnf)); err != nil {
			return WrapExitError(ExitCommandError, "failed to write artifact", err)
		}
		result.Artifact = out
	}

	return outputTrainResult(formatter, result)
}

// resolveSession picks the invocation source: a YAML session file, a
// line-oriented training file, or the positional command line, in that
// order of precedence. Exactly one source must be given.
func resolveSession(opts *TrainOptions, args []string) (*training.Session, error) {
	sources := 0
	if opts.SessionFile != "" {
		sources++
	}
	if opts.TrainingFile != "" {
		sources++
	}
	if len(args) > 0 {
		sources++
	}
	if sources == 0 {
		return nil, NewExitError(ExitCommandError, "nothing to train: give a command, --file, or --session")
	}
	if sources > 1 {
		return nil, NewExitError(ExitCommandError, "give exactly one of: a command, --file, or --session")
	}

	switch {
	case opts.SessionFile != "":
		s, err := training.ReadSession(opts.SessionFile)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to read session file", err)
		}
		return s, nil
	case opts.TrainingFile != "":
		s, err := training.ReadFile(opts.TrainingFile)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to read training file", err)
		}
		return s, nil
	default:
		s, err := training.FromArgs(args)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "invalid invocation", err)
		}
		return s, nil
	}
}

func outputTrainResult(f *OutputFormatter, result TrainResult) error {
	if f.Format == "json" {
		return f.Success(result)
	}
	fmt.Fprintf(f.Writer, "Trained %q: %d invocation(s), %d output(s), %d map entries\n",
		result.Root, result.Invocations, result.Outputs, result.MapEntries)
	if result.Artifact != "" {
		fmt.Fprintf(f.Writer, "Wrote %s\n", result.Artifact)
	}
	return nil
}

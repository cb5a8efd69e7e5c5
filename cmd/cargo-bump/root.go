package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dephub/cargo-bump/internal/config"
	"github.com/dephub/cargo-bump/internal/logger"
	"github.com/dephub/cargo-bump/providers/changelog"
	"github.com/dephub/cargo-bump/providers/fetchers"
	"github.com/dephub/cargo-bump/release"
)

// deps holds the terminal facing collaborators of the commands.
type deps struct {
	prompter  Prompter
	clipboard Clipboard
	isTTY     func() bool
}

func defaultDeps() deps {
	return deps{
		prompter:  teaPrompter{in: os.Stdin, out: os.Stderr},
		clipboard: systemClipboard{},
		isTTY:     func() bool { return term.IsTerminal(int(os.Stdin.Fd())) },
	}
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(defaultDeps())
}

func newRootCmdWith(d deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cargo-bump",
		Short: "Bump a Cargo workspace member and the version requirements of its dependents",
		Long: `Without a subcommand cargo-bump asks which workspace member to release and
which version to release it as, rewrites its manifest, and updates the version
requirements of the workspace members depending on it when the bump breaks them.`,
		Version:           version,
		Args:              exactArgs(0),
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: checkFormat,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInteractive(cmd, d)
		},
	}

	cmd.PersistentFlags().String("manifest-path", "Cargo.toml", "Path to the workspace root Cargo.toml")
	cmd.PersistentFlags().String("config", "", "Path to the config file (default: cargo-bump.yaml next to the manifest)")
	cmd.PersistentFlags().String("format", "text", "Output format: text or json")
	cmd.PersistentFlags().Bool("debug", false, "Write debug logs to stderr")
	cmd.PersistentFlags().Bool("no-clipboard", false, "Print the commit message instead of copying it")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	})

	cmd.AddCommand(
		newListCmd(),
		newClassifyCmd(),
		newCheckCmd(),
		newPlanCmd(),
		newReleaseCmd(d),
		newChangelogCmd(),
	)

	return cmd
}

// exactArgs is cobra.ExactArgs reporting a command error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("usage: %s", cmd.UseLine()), err)
		}
		return nil
	}
}

func checkFormat(cmd *cobra.Command, _ []string) error {
	format, _ := cmd.Flags().GetString("format")
	if format != "text" && format != "json" {
		return NewExitError(ExitCommandError, fmt.Sprintf("unsupported output format %q (expected text or json)", format))
	}
	return nil
}

func newFormatter(cmd *cobra.Command) *OutputFormatter {
	format, _ := cmd.Flags().GetString("format")
	return &OutputFormatter{Format: format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr()}
}

// session is the state shared by the commands working on a workspace.
type session struct {
	ws       *release.Workspace
	cfg      config.Config
	out      *OutputFormatter
	closeLog func() error
}

func openSession(cmd *cobra.Command) (*session, error) {
	manifestPath, _ := cmd.Flags().GetString("manifest-path")
	cfgPath, _ := cmd.Flags().GetString("config")
	debug, _ := cmd.Flags().GetBool("debug")

	required := cfgPath != ""
	if !required {
		cfgPath = filepath.Join(filepath.Dir(manifestPath), config.FileName)
	}
	cfg, err := config.Load(cfgPath, required)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "loading config", err)
	}

	lc := logger.Config{Debug: debug, File: cfg.LogFile}
	if debug && cfg.LogFile == "" {
		lc.Output = cmd.ErrOrStderr()
	}
	closeLog, err := logger.Setup(lc)
	if err != nil {
		return nil, WrapExitError(ExitFailure, "setting up logger", err)
	}

	store := fetchers.NewDirFetcher(filepath.Dir(manifestPath))
	locator := changelog.NewLocator(store, cfg.ChangelogFiles...)
	ws, err := release.Load(cmd.Context(), store, filepath.Base(manifestPath), locator)
	if err != nil {
		_ = closeLog()
		return nil, wrapReleaseError("loading workspace", err)
	}

	return &session{ws: ws, cfg: cfg, out: newFormatter(cmd), closeLog: closeLog}, nil
}

func (s *session) Close() {
	_ = s.closeLog()
}

// wrapReleaseError maps release errors caused by the user input to command errors.
func wrapReleaseError(message string, err error) error {
	switch {
	case errors.Is(err, release.ErrMemberNotFound),
		errors.Is(err, release.ErrVersionNotHigher),
		errors.Is(err, release.ErrPrereleaseVersion):
		return WrapExitError(ExitCommandError, message, err)
	}
	return WrapExitError(ExitFailure, message, err)
}

// Package mum holds the cobra command tree of the mum binary.
package mum

import (
	"errors"
	"fmt"

	"github.com/arthur-debert/mum/internal/version"
	"github.com/arthur-debert/mum/pkg/config"
	"github.com/arthur-debert/mum/pkg/filesystem"
	"github.com/arthur-debert/mum/pkg/installer"
	"github.com/arthur-debert/mum/pkg/logging"
	"github.com/arthur-debert/mum/pkg/ui"
	"github.com/arthur-debert/mum/pkg/ui/confirmations"
	"github.com/arthur-debert/mum/pkg/ui/display"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type globalFlags struct {
	verbosity int
	dryRun    bool
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	initTemplateFormatting()

	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:     "mum",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(flags.verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return errors.New(MsgErrNoCommand)
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	rootCmd.PersistentFlags().CountVarP(&flags.verbosity, "verbose", "v", MsgFlagVerbose)
	rootCmd.PersistentFlags().BoolVar(&flags.dryRun, "dry-run", false, MsgFlagDryRun)

	rootCmd.AddGroup(&cobra.Group{ID: "core", Title: "COMMANDS:"})
	rootCmd.AddGroup(&cobra.Group{ID: "misc", Title: "MISC:"})
	rootCmd.SetUsageTemplate(MsgUsageTemplate)

	rootCmd.AddCommand(newInstallCmd(flags))
	rootCmd.AddCommand(newUpdateCmd(flags))
	rootCmd.AddCommand(newDebugCmd(flags))
	rootCmd.AddCommand(newSwitchCmd())
	rootCmd.AddCommand(newPlanCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

// newInstaller builds an installer on the real filesystem, prompting on
// the command's streams.
func newInstaller(cmd *cobra.Command) (*installer.Installer, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return installer.New(installer.Dependencies{
		Fs:        filesystem.NewOS(),
		Config:    cfg,
		Confirmer: confirmations.NewDialog(cmd.InOrStdin(), cmd.ErrOrStderr()),
	})
}

func report(command string, res *installer.Result) *display.Report {
	return &display.Report{
		Command:   command,
		Source:    res.Context.Source,
		Target:    res.Context.TopTarget,
		CacheRoot: res.Context.CacheRoot,
		DryRun:    res.Context.DryRun,
		Projects:  display.Projects(res.Root),
		Plan:      res.Plan,
		Record:    res.RecordPath,
	}
}

// finish reports a completed installation: the plan in dry-run, the success
// line otherwise.
func finish(cmd *cobra.Command, command string, res *installer.Result) error {
	if res.Context.DryRun {
		r, err := ui.NewRenderer(ui.FormatAuto, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if err := r.RenderReport(report(command, res)); err != nil {
			return err
		}
		success(cmd.OutOrStdout(), MsgDryRunDone)
		return nil
	}
	success(cmd.OutOrStdout(), fmt.Sprintf(MsgInstalled, res.Context.Source, res.Context.TopTarget))
	return nil
}

func newInstallCmd(flags *globalFlags) *cobra.Command {
	var clean, yes bool

	cmd := &cobra.Command{
		Use:     "install <source> [target]",
		Short:   MsgInstallShort,
		Long:    MsgInstallLong,
		Example: MsgInstallExample,
		GroupID: "core",
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := "."
			if len(args) == 2 {
				target = args[1]
			}
			inst, err := newInstaller(cmd)
			if err != nil {
				return err
			}
			res, err := inst.Install(cmd.Context(), args[0], target, installer.Options{
				Clean:     clean,
				DryRun:    flags.dryRun,
				AssumeYes: yes,
			})
			if err != nil {
				return err
			}
			return finish(cmd, "install", res)
		},
	}

	cmd.Flags().BoolVar(&clean, "clean", false, MsgFlagClean)
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, MsgFlagYes)
	return cmd
}

func newUpdateCmd(flags *globalFlags) *cobra.Command {
	var clean, yes bool
	var record string

	cmd := &cobra.Command{
		Use:     "update",
		Short:   MsgUpdateShort,
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			inst, err := newInstaller(cmd)
			if err != nil {
				return err
			}
			res, err := inst.Update(cmd.Context(), record, installer.Options{
				Clean:     clean,
				DryRun:    flags.dryRun,
				AssumeYes: yes,
			})
			if err != nil {
				return err
			}
			return finish(cmd, "update", res)
		},
	}

	cmd.Flags().StringVar(&record, "record", "", MsgFlagRecord)
	cmd.Flags().BoolVar(&clean, "clean", false, MsgFlagClean)
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, MsgFlagYes)
	return cmd
}

func newDebugCmd(flags *globalFlags) *cobra.Command {
	var yes bool
	var record string

	cmd := &cobra.Command{
		Use:     "debug",
		Short:   MsgDebugShort,
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			inst, err := newInstaller(cmd)
			if err != nil {
				return err
			}
			res, err := inst.Debug(cmd.Context(), record, installer.Options{
				DryRun:    flags.dryRun,
				AssumeYes: yes,
			})
			if err != nil {
				return err
			}
			return finish(cmd, "debug", res)
		},
	}

	cmd.Flags().StringVar(&record, "record", "", MsgFlagRecord)
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, MsgFlagYes)
	return cmd
}

func newSwitchCmd() *cobra.Command {
	var record string

	cmd := &cobra.Command{
		Use:     "switch <commit-ish>",
		Short:   MsgSwitchShort,
		GroupID: "core",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inst, err := newInstaller(cmd)
			if err != nil {
				return err
			}
			rec, err := inst.Switch(record, args[0])
			if err != nil {
				return err
			}
			success(cmd.OutOrStdout(), fmt.Sprintf(MsgSwitched, inst.RecordPath(record), rec.Source))
			return nil
		},
	}

	cmd.Flags().StringVar(&record, "record", "", MsgFlagRecord)
	return cmd
}

func newPlanCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:     "plan <source> [target]",
		Short:   MsgPlanShort,
		Long:    MsgPlanLong,
		GroupID: "core",
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := ui.ParseFormat(format)
			if err != nil {
				return err
			}
			target := "."
			if len(args) == 2 {
				target = args[1]
			}
			inst, err := newInstaller(cmd)
			if err != nil {
				return err
			}
			res, err := inst.Plan(cmd.Context(), args[0], target, installer.Options{})
			if err != nil {
				return err
			}
			r, err := ui.NewRenderer(f, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return r.RenderReport(report("plan", res))
		},
	}

	cmd.Flags().StringVar(&format, "format", "auto", MsgFlagFormat)
	return cmd
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "config",
		Short:   MsgConfigShort,
		GroupID: "misc",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			data, err := toml.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   MsgVersionShort,
		GroupID: "misc",
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), MsgVersionLine+"\n", version.Version)
			fmt.Fprintf(cmd.OutOrStdout(), MsgVersionBuild+"\n", version.Commit, version.Date)
		},
	}
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 MsgCompletionShort,
		Long:                  MsgCompletionLong,
		GroupID:               "misc",
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
			default:
				return cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
			}
		},
	}
}

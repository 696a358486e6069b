package mum

import (
	_ "embed"
	"strings"
)

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort       = "Materialize a project and its dependencies"
	MsgInstallShort    = "Install a project into a target directory"
	MsgUpdateShort     = "Re-run the installation recorded in mumi.json"
	MsgDebugShort      = "Re-run the recorded installation without updating sources"
	MsgSwitchShort     = "Point the recorded repository source at another commit-ish"
	MsgPlanShort       = "Show what an installation would do"
	MsgConfigShort     = "Print the effective engine configuration"
	MsgVersionShort    = "Print version information"
	MsgCompletionShort = "Generate shell completion script"

	MsgInstallLong = `Install resolves <source> and its dependencies into the cache, prepares
[target] (the current directory when omitted), runs the lifecycle scripts and
overlays every project onto its destination. The installation is recorded in
mumi.json next to the target so that 'mum update' can repeat it.`

	MsgInstallExample = `  # Install a local project into ./site
  mum install ../my-project site

  # Install a repository at a tag, wiping the target first
  mum install --clean --yes https://github.com/acme/site.git#v1.2.0 /srv/site`

	MsgPlanLong = `Plan walks the dependency tree like install does and prints the resulting
script phases and overlay mappings. Sources are fetched into the cache; the
target directory is never touched.`

	// Status messages
	MsgInstalled    = "Installed %s into %s"
	MsgDryRunDone   = "Dry run complete, nothing was changed"
	MsgSwitched     = "Switched %s to %s"
	MsgVersionLine  = "mum version %s"
	MsgVersionBuild = "  commit: %s\n  built:  %s"

	// Error messages
	MsgErrNoCommand = "no command specified"

	// Flag descriptions
	MsgFlagVerbose = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagDryRun  = "Preview changes without executing them"
	MsgFlagClean   = "Wipe a non-empty target directory before installing"
	MsgFlagYes     = "Do not ask for confirmation"
	MsgFlagRecord  = "Install record to read (default ./mumi.json)"
	MsgFlagFormat  = "Output format: auto, term, text, json or yaml"
)

// Long messages from embedded files
var (
	//go:embed msgs/root-long.txt
	msgRootLongRaw string
	MsgRootLong    = strings.TrimSpace(msgRootLongRaw)

	//go:embed msgs/usage-template.txt
	msgUsageTemplateRaw string
	MsgUsageTemplate    = strings.TrimSpace(msgUsageTemplateRaw)

	//go:embed msgs/completion-long.txt
	msgCompletionLongRaw string
	MsgCompletionLong    = strings.TrimSpace(msgCompletionLongRaw)
)

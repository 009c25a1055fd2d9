package terminal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"ui_harness/application/runner"
	"ui_harness/application/session"
	"ui_harness/domain/entities"
	"ui_harness/domain/interfaces"
	"ui_harness/infrastructure/browser"
	"ui_harness/infrastructure/browser/fakebrowser"
	"ui_harness/infrastructure/config"
	"ui_harness/infrastructure/report"
	"ui_harness/infrastructure/security"
	"ui_harness/infrastructure/storage"
	"ui_harness/pages"
	"ui_harness/suites/saucedemo"
)

// ErrScenariosFailed is returned by run when at least one scenario did not pass
var ErrScenariosFailed = errors.New("some scenarios did not pass")

type globalFlags struct {
	configFile string
	envFile    string
	logLevel   string
	set        []string
}

// NewRootCommand - builds the harness command tree
func NewRootCommand() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "harness",
		Short:         "Page-object UI test harness",
		Long:          `harness runs page-object scenarios on playwright or selenium backends, one isolated session per scenario.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.configFile, "config", "", "Config file (default harness.yaml if present)")
	root.PersistentFlags().StringVar(&g.envFile, "env-file", ".env", "Environment file loaded before the configuration")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringArrayVar(&g.set, "set", nil, "Override a configuration key, key=value (repeatable)")

	root.AddCommand(newRunCommand(g), newCheckCommand(g))
	return root
}

// Execute runs the root command with signal-aware cancellation
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, ErrScenariosFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func (g *globalFlags) logger(w io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(g.logLevel)
	if err != nil {
		return nil, err
	}
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return logger, nil
}

func (g *globalFlags) load(extra map[string]interface{}) (*config.Store, error) {
	overrides := map[string]interface{}{}
	for k, v := range extra {
		overrides[k] = v
	}
	for _, kv := range g.set {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("--set %q: want key=value", kv)
		}
		overrides[strings.TrimSpace(k)] = v
	}
	return config.Load(config.LoadOptions{
		EnvFile:    g.envFile,
		ConfigFile: g.configFile,
		Defaults:   saucedemo.Defaults(),
		Overrides:  overrides,
	})
}

type runFlags struct {
	framework string
	mode      string
	headless  bool
	workers   int
	tags      []string
	fake      bool
}

func newRunCommand(g *globalFlags) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the storefront suite",
		Long:  `Runs every scenario of the storefront suite, or those carrying one of --tags, and prints a summary.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuite(cmd, g, f)
		},
	}
	cmd.Flags().StringVar(&f.framework, "framework", "", "Automation framework (playwright, selenium)")
	cmd.Flags().StringVar(&f.mode, "mode", "", "Execution mode (local, grid, mobile, desktop, headless)")
	cmd.Flags().BoolVar(&f.headless, "headless", false, "Run browsers headless")
	cmd.Flags().IntVarP(&f.workers, "workers", "w", 1, "Scenarios run in parallel")
	cmd.Flags().StringSliceVarP(&f.tags, "tags", "t", nil, "Only run scenarios with one of these tags")
	cmd.Flags().BoolVar(&f.fake, "fake", false, "Run against the in-memory storefront instead of a real browser")
	return cmd
}

func (f *runFlags) overrides(cmd *cobra.Command) map[string]interface{} {
	out := map[string]interface{}{}
	if f.framework != "" {
		out[interfaces.KeyFramework] = f.framework
	}
	if f.mode != "" {
		out[interfaces.KeyExecutionMode] = f.mode
	}
	if cmd.Flags().Changed("headless") {
		out[interfaces.KeyHeadless] = f.headless
	}
	return out
}

func runSuite(cmd *cobra.Command, g *globalFlags, f *runFlags) error {
	logger, err := g.logger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	cfg, err := g.load(f.overrides(cmd))
	if err != nil {
		return err
	}
	store, err := storage.NewArtifactStore(cfg.String(interfaces.KeyArtifactsDir, "artifacts"))
	if err != nil {
		return err
	}

	scenarios := saucedemo.Filter(saucedemo.Scenarios(), f.tags)
	if len(scenarios) == 0 {
		return fmt.Errorf("no scenario matches tags %v", f.tags)
	}

	launchers := realLaunchers()
	if f.fake {
		launchers = fakeLaunchers(cfg)
	}

	reporter := report.NewLogReporter(logger, logrus.Fields{"suite": "saucedemo"}).
		Redacting(security.NewRedactor(cfg).Redact)
	r := runner.NewRunner(cfg, launchers, pages.Catalog(),
		runner.WithLogger(logger),
		runner.WithReporter(reporter),
		runner.WithArtifactStore(store),
		runner.WithTestData(func(name string) interfaces.TestData { return config.NewTestData(cfg, name) }),
	)

	logger.WithFields(logrus.Fields{
		"scenarios": len(scenarios),
		"workers":   f.workers,
		"framework": cfg.String(interfaces.KeyFramework, ""),
		"mode":      cfg.String(interfaces.KeyExecutionMode, ""),
	}).Info("starting run")

	results, runErr := r.RunAll(cmd.Context(), scenarios, f.workers)
	if err := store.SaveResults(results); err != nil {
		logger.WithError(err).Warn("could not save run history")
	}
	if !printSummary(cmd.OutOrStdout(), results) {
		return ErrScenariosFailed
	}
	return runErr
}

func realLaunchers() session.Launchers {
	return session.Launchers{
		Modern:  browser.LaunchPlaywright,
		Web:     browser.LaunchWebDriver,
		Mobile:  browser.LaunchAppium,
		Desktop: browser.LaunchWinAppDriver,
	}
}

func fakeLaunchers(cfg interfaces.Config) session.Launchers {
	base := cfg.String(interfaces.KeyAppURL, pages.DefaultBaseURL)
	launch := func(kind entities.BackendKind, platform entities.Platform) session.Launcher {
		return func(ctx context.Context, opts session.LaunchOptions) (interfaces.Backend, error) {
			b := fakebrowser.NewBackend(kind, platform)
			fakebrowser.Storefront(b.Doc, base)
			return b, nil
		}
	}
	return session.Launchers{
		Modern:  launch(entities.BackendModern, entities.PlatformWeb),
		Web:     launch(entities.BackendLegacy, entities.PlatformWeb),
		Mobile:  launch(entities.BackendLegacy, entities.PlatformMobile),
		Desktop: launch(entities.BackendLegacy, entities.PlatformDesktop),
	}
}

// printSummary writes one line per scenario and reports whether all passed
func printSummary(w io.Writer, results []entities.ScenarioResult) bool {
	pass := color.New(color.FgGreen, color.Bold)
	fail := color.New(color.FgRed, color.Bold)
	warn := color.New(color.FgYellow)

	fmt.Fprintln(w)
	counts := map[entities.ScenarioStatus]int{}
	for _, res := range results {
		counts[res.Status]++
		switch res.Status {
		case entities.ScenarioPassed:
			pass.Fprint(w, "PASS ")
		case entities.ScenarioFailed, entities.ScenarioAborted:
			fail.Fprintf(w, "%s ", strings.ToUpper(string(res.Status)))
		default:
			warn.Fprintf(w, "%s ", strings.ToUpper(string(res.Status)))
		}
		fmt.Fprintf(w, "%s (%d steps, %s)\n", res.Scenario.Name, len(res.Steps), res.Duration.Round(time.Millisecond))
		if res.Error != "" {
			fmt.Fprintf(w, "     %s\n", firstLine(res.Error))
		}
		for _, d := range res.Diagnostics {
			fmt.Fprintf(w, "     screenshot: %s\n", d.Path)
		}
	}

	fmt.Fprintln(w)
	total := len(results)
	passed := counts[entities.ScenarioPassed]
	summary := fmt.Sprintf("%d scenarios: %d passed, %d failed, %d aborted, %d not run",
		total, passed, counts[entities.ScenarioFailed], counts[entities.ScenarioAborted], counts[entities.ScenarioPending])
	if passed == total {
		pass.Fprintln(w, summary)
		return true
	}
	fail.Fprintln(w, summary)
	return false
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

type checkFlags struct {
	history bool
}

func newCheckCommand(g *globalFlags) *cobra.Command {
	f := &checkFlags{}
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration",
		Long:  `Prints the effective configuration and verifies that the framework and execution mode resolve.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkConfig(cmd, g, f)
		},
	}
	cmd.Flags().BoolVar(&f.history, "history", false, "Also print the results of the previous run")
	return cmd
}

func checkConfig(cmd *cobra.Command, g *globalFlags, f *checkFlags) error {
	cfg, err := g.load(nil)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	redactor := security.NewRedactor(cfg)
	for _, k := range cfg.Keys() {
		fmt.Fprintf(w, "%s = %s\n", k, redactor.Value(k, cfg.String(k, "")))
	}

	kind, err := entities.ParseBackendKind(cfg.String(interfaces.KeyFramework, ""))
	if err != nil {
		return err
	}
	mode, err := entities.ParseExecutionMode(cfg.String(interfaces.KeyExecutionMode, ""))
	if err != nil {
		return err
	}
	color.New(color.FgGreen).Fprintf(w, "\nbackend %s, mode %s, platform %s\n", kind, mode, mode.Platform())

	if !f.history {
		return nil
	}
	store, err := storage.NewArtifactStore(cfg.String(interfaces.KeyArtifactsDir, "artifacts"))
	if err != nil {
		return err
	}
	previous, err := store.LoadResults()
	if err != nil {
		return err
	}
	if len(previous) == 0 {
		fmt.Fprintln(w, "no previous run")
		return nil
	}
	printSummary(w, previous)
	return nil
}

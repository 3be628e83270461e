package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dshills/pathtree/internal/changelog"
	"github.com/dshills/pathtree/internal/config"
	"github.com/dshills/pathtree/internal/document"
	"github.com/dshills/pathtree/internal/logging"
	"github.com/dshills/pathtree/internal/pattern"
	"github.com/dshills/pathtree/internal/sched"
	"github.com/dshills/pathtree/internal/script"
	"github.com/dshills/pathtree/internal/store"
	"github.com/dshills/pathtree/internal/watcher"
)

// cli holds state shared by all commands.
type cli struct {
	stdout io.Writer
	stderr io.Writer

	configPath string
	flags      globalFlags

	cfg    *config.Config
	logger zerolog.Logger
}

type globalFlags struct {
	logLevel          string
	logPretty         bool
	format            string
	color             string
	selector          string
	suppressUnchanged bool
	patterns          []string
	batched           bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	c := &cli{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "pathtree",
		Short: "Observe changes in structured documents by path pattern",
		Long: `pathtree loads a JSON, JSONC, YAML or TOML document into an observable
tree and reports changes whose paths match dot-delimited patterns such as
"users.*.name" or "settings.**".`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.init(cmd)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetVersionTemplate(fmt.Sprintf("pathtree %s (commit %s, built %s)\n", version, commit, date))

	pf := root.PersistentFlags()
	pf.StringVarP(&c.configPath, "config", "c", config.DefaultPath(), "Path to configuration file")
	pf.StringVar(&c.flags.logLevel, "log-level", "", "Log level (debug, info, warn, error, off)")
	pf.BoolVar(&c.flags.logPretty, "log-pretty", false, "Human-readable logs")
	pf.StringVarP(&c.flags.format, "format", "f", "", "Output format (json, yaml, toml)")
	pf.StringVar(&c.flags.color, "color", "", "Color output (auto, always, never)")
	pf.StringVarP(&c.flags.selector, "select", "s", "", "Load only the sub-document at this path")
	pf.BoolVar(&c.flags.suppressUnchanged, "suppress-unchanged", false, "Do not report writes that keep the same value")

	root.AddCommand(
		c.matchCmd(),
		c.dumpCmd(),
		c.runCmd(),
		c.watchCmd(),
	)
	return root
}

// init resolves the configuration: file, then environment, then flags.
func (c *cli) init(cmd *cobra.Command) error {
	cfg, err := config.Load(c.configPath, c.loadOptions(cmd)...)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = c.flags.logLevel
	}
	if flags.Changed("log-pretty") {
		cfg.Log.Pretty = c.flags.logPretty
	}
	if flags.Changed("format") {
		cfg.Output.Format = c.flags.format
	}
	if flags.Changed("color") {
		cfg.Output.Color = c.flags.color
	}
	if flags.Changed("select") {
		cfg.Tree.Select = c.flags.selector
	}
	if flags.Changed("suppress-unchanged") {
		cfg.Tree.SuppressUnchanged = c.flags.suppressUnchanged
	}
	if flags.Lookup("pattern") != nil && flags.Changed("pattern") {
		cfg.Listen.Patterns = c.flags.patterns
	}
	if flags.Lookup("batched") != nil && flags.Changed("batched") {
		cfg.Listen.Batched = c.flags.batched
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logging.Init(logging.Config{
		Level:  logging.ParseLevel(cfg.Log.Level),
		Output: c.stderr,
		Pretty: cfg.Log.Pretty,
	})
	c.cfg = cfg
	c.logger = logging.Component("cli")
	return nil
}

func (c *cli) loadOptions(cmd *cobra.Command) []config.LoadOption {
	if cmd.Flags().Changed("config") {
		return []config.LoadOption{config.Required()}
	}
	return nil
}

// color reports whether output written to w should be colored.
func (c *cli) color(w io.Writer) bool {
	switch c.cfg.Output.Color {
	case "always":
		return true
	case "never":
		return false
	}
	return changelog.IsTerminal(w)
}

func (c *cli) loader() *document.Loader {
	return document.NewLoader(document.WithSelect(c.cfg.Tree.Select))
}

func (c *cli) newStore(doc any, opts ...store.Option) (*store.Store, error) {
	opts = append(opts,
		store.WithLogger(logging.Component("store")),
		store.WithSuppressUnchanged(c.cfg.Tree.SuppressUnchanged),
	)
	return store.New(doc, opts...)
}

// attachRecorders subscribes one change recorder per configured pattern.
func (c *cli) attachRecorders(s *store.Store) ([]*changelog.Recorder, error) {
	var recs []*changelog.Recorder
	for _, p := range c.cfg.Listen.Patterns {
		r := changelog.New(c.stdout,
			changelog.WithColor(c.color(c.stdout)),
			changelog.WithLogger(logging.Component("changelog")),
		)
		var err error
		if c.cfg.Listen.Batched {
			err = r.AttachBatched(s, p)
		} else {
			err = r.Attach(s, p)
		}
		if err != nil {
			return nil, err
		}
		recs = append(recs, r)
	}
	return recs, nil
}

func (c *cli) print(v any) error {
	data, err := document.Encode(v, c.cfg.Format(), document.EncodeOptions{
		Pretty: true,
		Color:  c.cfg.Format() == document.FormatJSON && c.color(c.stdout),
	})
	if err != nil {
		return err
	}
	if len(data) > 0 && data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}
	_, err = c.stdout.Write(data)
	return err
}

func (c *cli) matchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "match PATTERN PATH...",
		Short: "Test paths against a pattern",
		Example: `  pathtree match 'users.*.name' users.1.name users.1.email
  pathtree match 'a.**' a a.b.c`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			p := pattern.Parse(args[0])
			if err := pattern.Validate(p); err != nil {
				return err
			}
			for _, arg := range args[1:] {
				fmt.Fprintf(c.stdout, "%t\t%s\n", pattern.Match(p, pattern.ParsePath(arg)), arg)
			}
			return nil
		},
	}
}

func (c *cli) dumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump FILE",
		Short: "Load a document and print it",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			doc, err := c.loader().Load(args[0])
			if err != nil {
				return err
			}
			s, err := c.newStore(doc)
			if err != nil {
				return err
			}
			return c.print(s.Root())
		},
	}
}

func (c *cli) runCmd() *cobra.Command {
	var printResult bool
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "run FILE SCRIPT",
		Short: "Run a Lua script against a document",
		Long: `Run loads FILE into a store and runs the Lua SCRIPT against it. Changes
matching the configured patterns are printed as JSON lines while the script
runs; with --print the final document is printed afterwards.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := c.loader().Load(args[0])
			if err != nil {
				return err
			}
			manual := sched.NewManual()
			s, err := c.newStore(doc, store.WithScheduler(manual))
			if err != nil {
				return err
			}
			if _, err := c.attachRecorders(s); err != nil {
				return err
			}

			engine := script.New(s,
				script.WithOutput(c.stderr),
				script.WithTimeout(timeout),
				script.WithLogger(logging.Component("script")),
			)
			defer engine.Close()

			if err := engine.DoFile(cmd.Context(), args[1]); err != nil {
				return err
			}
			manual.Drain(0)
			if errs := engine.Errors(); len(errs) > 0 {
				return errs[0]
			}

			if printResult {
				return c.print(s.Root())
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&printResult, "print", "p", false, "Print the document after the script")
	cmd.Flags().DurationVar(&timeout, "timeout", script.DefaultTimeout, "Script time limit (0 for none)")
	c.listenFlags(cmd)
	return cmd
}

func (c *cli) watchCmd() *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch FILE",
		Short: "Print changes to a document as it is edited",
		Long: `Watch loads FILE and prints one JSON line for every change matching the
configured patterns each time the file is saved. It runs until interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("debounce") {
				c.cfg.Watch.Debounce = config.Duration(debounce)
			}
			return c.watch(cmd.Context(), args[0])
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", watcher.DefaultDebounce, "Quiet period before reloading")
	c.listenFlags(cmd)
	return cmd
}

func (c *cli) listenFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&c.flags.patterns, "pattern", "P", nil, "Pattern to report (repeatable)")
	cmd.Flags().BoolVarP(&c.flags.batched, "batched", "b", false, "Report one record per flush instead of one per change")
}

func (c *cli) watch(ctx context.Context, path string) error {
	loop := sched.NewLoop(sched.WithLogger(logging.Component("loop")))
	if err := loop.Start(); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = loop.Stop(stopCtx)
	}()

	loader := c.loader()
	doc, err := loader.Load(path)
	if err != nil {
		return err
	}

	var s *store.Store
	err = loop.Do(ctx, func() error {
		var err error
		if s, err = c.newStore(doc, store.WithScheduler(loop)); err != nil {
			return err
		}
		_, err = c.attachRecorders(s)
		return err
	})
	if err != nil {
		return err
	}

	syncer, err := watcher.New(path, s, loop,
		watcher.WithLoader(loader),
		watcher.WithDebounce(c.cfg.Watch.Debounce.Std()),
		watcher.WithLogger(logging.Component("watcher")),
	)
	if err != nil {
		return err
	}
	if err := syncer.Start(); err != nil {
		return err
	}
	c.logger.Info().Str("path", syncer.Path()).Strs("patterns", c.cfg.Listen.Patterns).Msg("watching")

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return syncer.Stop(stopCtx)
}

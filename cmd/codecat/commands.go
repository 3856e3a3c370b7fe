package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/taigrr/codecat/internal/config"
	"github.com/taigrr/codecat/internal/filesystem"
	"github.com/taigrr/codecat/internal/logging"
	"github.com/taigrr/codecat/internal/snapshot"
	"github.com/taigrr/codecat/internal/types"
)

// Defaults for the command line only; the packages under internal take every
// path as an argument.
const (
	defaultProjectDir = "."
	defaultOutput     = "project_files.txt"
	defaultConfigFile = "codecat.yaml"
)

type rootFlags struct {
	configPath     string
	output         string
	sort           bool
	followSymlinks bool
	maxFileSize    int64
	verbose        int
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "codecat [project-dir]",
		Short: "Concatenate a project's files into one text snapshot",
		Long: `codecat walks a project directory, keeps the files allowed by a YAML
config of allowed and ignored names and extensions, and writes every
kept file's path and contents into a single text file. Useful for
handing a codebase to a reviewer or a language model in one piece.

Ignore rules always win over allow rules. Files must be allowed
explicitly by name or extension; folders are entered unless ignored,
or unless allowed_names is set and does not list them.`,
		Example: `codecat
codecat ./myproject -c rules.yaml -o snapshot.txt
CODECAT_ALLOWED_EXTENSIONS=.go,.md codecat --sort`,
		Args: cobra.MaximumNArgs(1),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(flags.verbose, cmd.ErrOrStderr())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, flags, projectDir(args))
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "config file (default: codecat.yaml in the project, then $XDG_CONFIG_HOME/codecat/config.yaml)")
	pf.BoolVar(&flags.sort, "sort", false, "sort directory listings by name for reproducible output")
	pf.BoolVar(&flags.followSymlinks, "follow-symlinks", false, "descend into symlinked directories")
	pf.Int64Var(&flags.maxFileSize, "max-file-size", 0, "skip files larger than this many bytes when writing (0 for no limit)")
	pf.CountVarP(&flags.verbose, "verbose", "v", "increase log verbosity (-v info, -vv debug, -vvv trace)")

	cmd.Flags().StringVarP(&flags.output, "output", "o", defaultOutput, "output file")

	cmd.AddCommand(
		newListCmd(flags),
		newInitCmd(),
		newGrepCmd(flags),
		newServeCmd(flags),
	)

	return cmd
}

func projectDir(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return defaultProjectDir
}

func runExport(cmd *cobra.Command, flags *rootFlags, dir string) error {
	cfg, err := loadRules(flags.configPath, dir)
	if err != nil {
		return err
	}

	svc := snapshot.New(dir, snapshot.Options{
		Sort:           flags.sort,
		FollowSymlinks: flags.followSymlinks,
		MaxFileSize:    flags.maxFileSize,
	})

	result, err := svc.ExportFile(cfg, flags.output)
	if err != nil {
		return describeError(err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Collected files written to %s.\n", result.Output)
	if n := len(result.Skipped); n > 0 {
		fmt.Fprintf(out, "%d written, %d skipped (run with -v for details).\n", result.Written, n)
	}
	return nil
}

func newListCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list [project-dir]",
		Short: "Print the files that would be collected, one per line",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := projectDir(args)
			cfg, err := loadRules(flags.configPath, dir)
			if err != nil {
				return err
			}

			svc := snapshot.New(dir, snapshot.Options{
				Sort:           flags.sort,
				FollowSymlinks: flags.followSymlinks,
			})
			files, _, err := svc.Collect(cfg, "")
			if err != nil {
				return describeError(err)
			}

			out := cmd.OutOrStdout()
			for _, f := range files {
				fmt.Fprintln(out, f)
			}
			return nil
		},
	}
}

func newGrepCmd(flags *rootFlags) *cobra.Command {
	var params types.SearchParams

	cmd := &cobra.Command{
		Use:   "grep <query> [project-dir]",
		Short: "Search the contents of the files that would be collected",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			params.Query = args[0]
			dir := projectDir(args[1:])
			cfg, err := loadRules(flags.configPath, dir)
			if err != nil {
				return err
			}

			svc := snapshot.New(dir, snapshot.Options{
				Sort:           flags.sort,
				FollowSymlinks: flags.followSymlinks,
			})
			results, total, err := svc.Search(cfg, "", params)
			if err != nil {
				return describeError(err)
			}

			out := cmd.OutOrStdout()
			for _, r := range results {
				for _, m := range r.Matches {
					fmt.Fprintf(out, "%s:%d\n%s\n--\n", r.Path, m.Line, m.Context)
				}
			}
			if shown := params.Offset + len(results); shown < total {
				fmt.Fprintf(out, "%d of %d matching files shown; use --offset for more.\n", len(results), total)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.BoolVarP(&params.UseRegex, "regex", "e", false, "treat the query as a regular expression")
	f.BoolVarP(&params.CaseSensitive, "case-sensitive", "s", false, "match case")
	f.IntVarP(&params.ContextLines, "context", "C", 0, "lines of context around each match (default 2)")
	f.IntVarP(&params.Limit, "limit", "n", 0, "maximum number of files to show (default 15)")
	f.IntVar(&params.Offset, "offset", 0, "skip the first N matching files")
	return cmd
}

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a starter config file (TOML when the path ends in .toml)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultConfigFile
			if len(args) > 0 {
				path = args[0]
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists; use --force to overwrite it", path)
			}

			data, err := config.Sample(config.DefaultRules, config.FormatOf(path))
			if err != nil {
				return err
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("failed to write config: %s - %w", path, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s.\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}

// loadRules loads the explicit config file, or the one Find discovers for
// dir. With no file at all only environment overrides apply.
func loadRules(configPath, dir string) (types.FilterConfig, error) {
	if configPath == "" {
		found, err := config.Find(dir)
		switch {
		case err == nil:
			configPath = found
		case errors.Is(err, config.ErrNotFound):
			log.Info().Str("dir", dir).Msg("No config file found, using environment only")
		default:
			return types.FilterConfig{}, err
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return types.FilterConfig{}, err
	}

	if cfg.AllowedNames.Len() == 0 && cfg.AllowedExtensions.Len() == 0 {
		log.Warn().Str("config", configPath).Msg("No allowed names or extensions; no files will be collected")
	}
	log.Debug().
		Str("config", configPath).
		Strs("allowed_names", cfg.AllowedNames.Sorted()).
		Strs("allowed_extensions", cfg.AllowedExtensions.Sorted()).
		Strs("ignored_names", cfg.IgnoredNames.Sorted()).
		Strs("ignored_extensions", cfg.IgnoredExtensions.Sorted()).
		Msg("Loaded rules")

	return cfg, nil
}

func describeError(err error) error {
	if filesystem.IsNotExist(err) {
		var pathErr *filesystem.PathError
		errors.As(err, &pathErr)
		return fmt.Errorf("project directory not found: %s", pathErr.Path)
	}
	return err
}

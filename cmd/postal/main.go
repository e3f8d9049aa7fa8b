// Command postal runs the address engine from the command line.
//
//	postal parse "St Johns Centre, Rope Walk, Bedford MK42 0XE"
//	postal expand --lang en "120 E 96th St"
//	echo "Main St" | postal classify
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/postal-engine/postal"
)

type globalFlags struct {
	modelDir string
	lang     string
	country  string
	json     bool
	noColor  bool
	verbose  bool
}

var flags globalFlags

// extraCommands are registered by optional build-tagged files.
var extraCommands []func() *cobra.Command

func main() {
	rootCmd := &cobra.Command{
		Use:   "postal",
		Short: "Address tokenization, expansion and parsing",
		Long:  `Normalize, expand, classify and parse free-form street addresses with the embedded or on-disk model tables`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setColor(!flags.noColor && !flags.json)
		},
		SilenceUsage: true,
	}
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.modelDir, "model-dir", "", "directory of model artifacts (default: embedded tables)")
	pf.StringVarP(&flags.lang, "lang", "l", "", "language hint, comma separated")
	pf.StringVarP(&flags.country, "country", "c", "", "country hint (ISO 3166-1 alpha-2)")
	pf.BoolVar(&flags.json, "json", false, "print JSON")
	pf.BoolVar(&flags.noColor, "no-color", false, "disable colored output")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "log engine activity to stderr")

	rootCmd.AddCommand(createParseCmd())
	rootCmd.AddCommand(createExpandCmd())
	rootCmd.AddCommand(createClassifyCmd())
	rootCmd.AddCommand(createTokenizeCmd())
	rootCmd.AddCommand(createDedupeCmd())
	for _, create := range extraCommands {
		rootCmd.AddCommand(create())
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openEngine loads modules and returns a release func.
func openEngine(ctx context.Context, modules ...postal.Module) (*postal.Engine, func(), error) {
	logger := zap.NewNop()
	if flags.verbose {
		var err error
		if logger, err = zap.NewDevelopment(); err != nil {
			return nil, nil, err
		}
	}
	eng := postal.New(postal.Config{ModelDir: flags.modelDir}, logger)
	if err := eng.Setup(ctx, modules...); err != nil {
		return nil, nil, err
	}
	return eng, func() {
		eng.Teardown(modules...)
		logger.Sync()
	}, nil
}

func languages() []string {
	var out []string
	for _, l := range strings.Split(flags.lang, ",") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// inputs is the joined args, or one input per non-empty stdin line.
func inputs(args []string, stdin io.Reader) ([]string, error) {
	if len(args) > 0 {
		return []string{strings.Join(args, " ")}, nil
	}
	var out []string
	scanner := bufio.NewScanner(stdin)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			out = append(out, line)
		}
	}
	return out, scanner.Err()
}

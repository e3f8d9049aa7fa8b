package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/postal-engine/postal"
)

func createParseCmd() *cobra.Command {
	var tokens bool
	cmd := &cobra.Command{
		Use:   "parse [address]",
		Short: "Label the components of an address",
		Long:  "Label the components of an address. The parser takes at most one --lang code.",
		RunE: func(cmd *cobra.Command, args []string) error {
			langs := languages()
			if len(langs) > 1 {
				return fmt.Errorf("parse accepts one language, got %d", len(langs))
			}
			eng, release, err := openEngine(cmd.Context(), postal.ModuleParser)
			if err != nil {
				return err
			}
			defer release()

			lines, err := inputs(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			opts := postal.ParseOptions{Country: flags.country}
			if len(langs) == 1 {
				opts.Language = langs[0]
			}
			out := cmd.OutOrStdout()
			for _, line := range lines {
				labeled, err := eng.ParseAddress(line, opts)
				if err != nil {
					return err
				}
				if tokens {
					printLabeledTokens(out, labeled)
					continue
				}
				printComponents(out, postal.GroupComponents(labeled))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&tokens, "tokens", false, "print one label per token")
	return cmd
}

func createExpandCmd() *cobra.Command {
	var (
		canonical  bool
		limit      int
		components []string
		translit   bool
	)
	cmd := &cobra.Command{
		Use:   "expand [address]",
		Short: "Print the normalized variants of an address",
		RunE: func(cmd *cobra.Command, args []string) error {
			modules := []postal.Module{postal.ModuleExpansion}
			if translit {
				modules = append(modules, postal.ModuleTransliteration)
			}
			eng, release, err := openEngine(cmd.Context(), modules...)
			if err != nil {
				return err
			}
			defer release()

			opts := postal.DefaultExpandOptions()
			opts.Languages = languages()
			opts.CanonicalOnly = canonical
			if limit > 0 {
				opts.MaxExpansions = limit
			}
			if len(components) > 0 {
				mask, err := postal.ParseComponents(components)
				if err != nil {
					return err
				}
				opts.AddressComponents = mask
			}

			lines, err := inputs(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			for _, line := range lines {
				expansions, err := eng.ExpandAddress(line, opts)
				if err != nil {
					return err
				}
				printExpansions(cmd.OutOrStdout(), line, expansions)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&canonical, "canonical", false, "only the canonical form")
	cmd.Flags().IntVar(&limit, "max", 0, "maximum number of expansions")
	cmd.Flags().StringSliceVar(&components, "components", nil, "address components to expand (street, unit, toponym, ...)")
	cmd.Flags().BoolVar(&translit, "translit", true, "add transliterated variants")
	return cmd
}

func createClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify [address]",
		Short: "Score the languages of an address",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, release, err := openEngine(cmd.Context(), postal.ModuleExpansion)
			if err != nil {
				return err
			}
			defer release()

			var hint *postal.LanguageHint
			if langs := languages(); len(langs) > 0 || flags.country != "" {
				hint = &postal.LanguageHint{Languages: langs, Country: flags.country}
			}
			lines, err := inputs(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			for _, line := range lines {
				scores, err := eng.ClassifyLanguage(line, hint)
				if err != nil {
					return err
				}
				printScores(cmd.OutOrStdout(), scores)
			}
			return nil
		},
	}
}

func createTokenizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tokenize [text]",
		Short: "Split text into classified tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng := postal.New(postal.Config{}, nil)
			lines, err := inputs(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			for _, line := range lines {
				printTokens(cmd.OutOrStdout(), eng.Tokenize(line))
			}
			return nil
		},
	}
}

func createDedupeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dedupe [address a] [address b]",
		Short: "Compare two addresses",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, release, err := openEngine(cmd.Context(), postal.ModuleExpansion)
			if err != nil {
				return err
			}
			defer release()

			opts := postal.DefaultExpandOptions()
			opts.Languages = languages()
			res, err := eng.IsDuplicate(args[0], args[1], opts)
			if err != nil {
				return fmt.Errorf("dedupe: %w", err)
			}
			printDedupe(cmd.OutOrStdout(), res)
			return nil
		},
	}
}

package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/postal-engine/internal/address"
	"github.com/postal-engine/internal/dedupe"
	"github.com/postal-engine/postal"
)

var (
	green  = color.New(color.FgHiGreen).SprintFunc()
	yellow = color.New(color.FgHiYellow).SprintFunc()
	blue   = color.New(color.FgHiBlue).SprintFunc()
	red    = color.New(color.FgHiRed).SprintFunc()
)

func setColor(enabled bool) {
	color.NoColor = !enabled
}

func labelColor(l postal.Label) func(a ...interface{}) string {
	switch l {
	case address.LabelHouseNumber, address.LabelPostcode, address.LabelPoBox:
		return yellow
	case address.LabelRoad, address.LabelHouse:
		return green
	case address.LabelNone:
		return red
	}
	return blue
}

func printJSON(w io.Writer, v interface{}) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(w, red(err.Error()))
	}
}

func printComponents(w io.Writer, components []postal.Component) {
	if flags.json {
		printJSON(w, postal.ComponentMap(components))
		return
	}
	for _, c := range components {
		fmt.Fprintf(w, "%-16s %s\n", labelColor(c.Label)(c.Label.String()), c.Value)
	}
	fmt.Fprintln(w)
}

func printLabeledTokens(w io.Writer, labeled []postal.LabeledToken) {
	if flags.json {
		printJSON(w, labeled)
		return
	}
	for _, lt := range labeled {
		fmt.Fprintf(w, "%-24q %s\n", lt.Text, labelColor(lt.Label)(lt.Label.String()))
	}
	fmt.Fprintln(w)
}

func printExpansions(w io.Writer, input string, expansions []string) {
	if flags.json {
		printJSON(w, map[string]interface{}{"address": input, "expansions": expansions})
		return
	}
	for i, e := range expansions {
		if i == 0 {
			fmt.Fprintln(w, green(e))
			continue
		}
		fmt.Fprintln(w, e)
	}
	fmt.Fprintln(w)
}

func printScores(w io.Writer, scores []postal.LanguageScore) {
	if flags.json {
		printJSON(w, scores)
		return
	}
	for _, s := range scores {
		fmt.Fprintf(w, "%s\t%.4f\n", blue(s.Language), s.Score)
	}
}

func printTokens(w io.Writer, tokens []postal.Token) {
	if flags.json {
		printJSON(w, tokens)
		return
	}
	for _, t := range tokens {
		fmt.Fprintf(w, "%3d-%-3d %-20s %q\n", t.Start, t.End, yellow(t.Kind.String()), t.Text)
	}
}

func printDedupe(w io.Writer, res postal.DedupeResult) {
	if flags.json {
		printJSON(w, map[string]interface{}{
			"status": res.Status.String(),
			"score":  res.Score,
			"match":  res.Match,
		})
		return
	}
	status := res.Status.String()
	switch res.Status {
	case dedupe.ExactDuplicate, dedupe.LikelyDuplicate:
		status = green(status)
	case dedupe.PossibleDuplicate:
		status = yellow(status)
	default:
		status = red(status)
	}
	fmt.Fprintf(w, "%s\t%.4f\t%s\n", status, res.Score, res.Match)
}

// Command gridcalc evaluates, checks and converts gridcalc workbooks stored
// as xlsx files, and offers an interactive REPL for editing them.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/javajack/gridcalc"
)

const appName = "gridcalc"

var version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		usage(stderr)
		return 2
	}
	switch args[0] {
	case "eval":
		return cmdEval(args[1:], stdout, stderr)
	case "validate":
		return cmdValidate(args[1:], stdout, stderr)
	case "csv":
		return cmdCSV(args[1:], stdout, stderr)
	case "pivot":
		return cmdPivot(args[1:], stdout, stderr)
	case "repl":
		return cmdRepl(args[1:], stdout, stderr)
	case "version":
		fmt.Fprintln(stdout, version)
		return 0
	case "-h", "--help", "help":
		usage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "%s: unknown command %q\n", appName, args[0])
		usage(stderr)
		return 2
	}
}

func usage(w io.Writer) {
	fmt.Fprintf(w, `Usage:
  %[1]s eval [-trace] <file.xlsx>                  Refresh every sheet and describe the workbook
  %[1]s validate <file.xlsx>                       Check every formula without evaluating it
  %[1]s csv [-sheet NAME] [-encoding ENC] [-o OUT] <file.xlsx>
                                                   Write one sheet as CSV
  %[1]s pivot -source RANGE -row FIELD -values F[:fn],... [-filter EXPR] [-location CELL] [-o OUT] <file.xlsx>
                                                   Build a pivot table
  %[1]s repl [file.xlsx]                           Edit a workbook interactively
  %[1]s version                                    Print the version
`, appName)
}

// commonFlags are the evaluation flags shared by every subcommand.
type commonFlags struct {
	trace   bool
	maxHops int
}

func newFlagSet(name string, stderr io.Writer) (*flag.FlagSet, *commonFlags) {
	fs := flag.NewFlagSet(appName+" "+name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	c := &commonFlags{}
	fs.BoolVar(&c.trace, "trace", false, "print every evaluation to stderr")
	fs.IntVar(&c.maxHops, "max-hops", gridcalc.DefaultMaxChainHops, "reference chain length reported as recursion")
	return fs, c
}

func (c *commonFlags) build(stderr io.Writer) []gridcalc.Option {
	opts := []gridcalc.Option{gridcalc.WithMaxChainHops(c.maxHops)}
	if c.trace {
		opts = append(opts, gridcalc.WithListener(traceListener(stderr)))
	}
	return opts
}

// traceListener writes one line per evaluation.
func traceListener(w io.Writer) gridcalc.EvalListener {
	return gridcalc.EvalListenerFunc(func(ref gridcalc.Ref, text, result string, matched bool) {
		if !matched {
			fmt.Fprintf(w, "trace %s %s (no match)\n", ref, text)
			return
		}
		fmt.Fprintf(w, "trace %s %s → %s\n", ref, text, result)
	})
}

// openEvaluated opens path and refreshes every sheet.
func openEvaluated(path string, opts []gridcalc.Option) (*gridcalc.Workbook, error) {
	wb, err := gridcalc.OpenXLSXFile(path)
	if err != nil {
		return nil, err
	}
	gridcalc.NewGrid(wb, opts...).RefreshAll()
	return wb, nil
}

func singleFile(fs *flag.FlagSet, stderr io.Writer) (string, bool) {
	if fs.NArg() != 1 {
		fmt.Fprintf(stderr, "%s: expected one xlsx file\n", fs.Name())
		return "", false
	}
	return fs.Arg(0), true
}

func cmdEval(args []string, stdout, stderr io.Writer) int {
	fs, common := newFlagSet("eval", stderr)
	if err := fs.Parse(args); err != nil {
		return exitParse(err)
	}
	path, ok := singleFile(fs, stderr)
	if !ok {
		return 2
	}
	wb, err := openEvaluated(path, common.build(stderr))
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", appName, err)
		return 1
	}
	fmt.Fprint(stdout, gridcalc.Describe(wb))
	return 0
}

func cmdValidate(args []string, stdout, stderr io.Writer) int {
	fs, _ := newFlagSet("validate", stderr)
	if err := fs.Parse(args); err != nil {
		return exitParse(err)
	}
	path, ok := singleFile(fs, stderr)
	if !ok {
		return 2
	}
	wb, err := gridcalc.OpenXLSXFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", appName, err)
		return 1
	}
	code := 0
	for _, issue := range gridcalc.Validate(wb) {
		fmt.Fprintln(stdout, issue)
		if issue.Severity == gridcalc.SeverityError {
			code = 1
		}
	}
	return code
}

func cmdCSV(args []string, stdout, stderr io.Writer) int {
	fs, common := newFlagSet("csv", stderr)
	sheet := fs.String("sheet", "", "sheet to export (default: first sheet)")
	enc := fs.String("encoding", "utf-8", "output encoding: utf-8, windows-1252, iso-8859-1")
	out := fs.String("o", "", "output file (default: stdout)")
	if err := fs.Parse(args); err != nil {
		return exitParse(err)
	}
	path, ok := singleFile(fs, stderr)
	if !ok {
		return 2
	}
	wb, err := openEvaluated(path, common.build(stderr))
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", appName, err)
		return 1
	}
	idx := 0
	if *sheet != "" {
		if idx = wb.Index(*sheet); idx < 0 {
			fmt.Fprintf(stderr, "%s: sheet %q: %v\n", appName, *sheet, gridcalc.ErrSheetNotFound)
			return 1
		}
	}

	w := stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", appName, err)
			return 1
		}
		defer f.Close()
		w = f
	}
	if err := gridcalc.WriteCSV(w, wb.Sheet(idx), gridcalc.WithEncoding(*enc)); err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", appName, err)
		return 1
	}
	return 0
}

func cmdPivot(args []string, stdout, stderr io.Writer) int {
	fs, common := newFlagSet("pivot", stderr)
	sheet := fs.String("sheet", "", "sheet unqualified ranges refer to (default: first sheet)")
	source := fs.String("source", "", "source range with a header row, e.g. A1:D20")
	row := fs.String("row", "", "header of the grouping column")
	values := fs.String("values", "", "value columns as Field[:sum|average|count], comma separated")
	filter := fs.String("filter", "", "row filter expression, e.g. Amount > 10")
	location := fs.String("location", "", "top-left cell to place the table (default: print only)")
	out := fs.String("o", "", "file to save the workbook with the placed table (default: the input file)")
	if err := fs.Parse(args); err != nil {
		return exitParse(err)
	}
	path, ok := singleFile(fs, stderr)
	if !ok {
		return 2
	}
	vals, err := parsePivotValues(*values)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", appName, err)
		return 2
	}
	wb, err := openEvaluated(path, common.build(stderr))
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", appName, err)
		return 1
	}
	idx := 0
	if *sheet != "" {
		if idx = wb.Index(*sheet); idx < 0 {
			fmt.Fprintf(stderr, "%s: sheet %q: %v\n", appName, *sheet, gridcalc.ErrSheetNotFound)
			return 1
		}
	}

	spec := gridcalc.PivotSpec{Source: *source, RowField: *row, Values: vals, Location: *location, Filter: *filter}
	if *location == "" {
		table, err := gridcalc.BuildPivot(wb, idx, spec)
		if err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", appName, err)
			return 1
		}
		printTable(stdout, table)
		return 0
	}

	if issues := gridcalc.ValidatePivot(wb, idx, spec); len(issues) > 0 {
		for _, issue := range issues {
			fmt.Fprintln(stderr, issue)
		}
		return 1
	}
	table, err := gridcalc.RunPivot(wb, idx, spec)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", appName, err)
		return 1
	}
	target := *out
	if target == "" {
		target = path
	}
	if err := gridcalc.SaveXLSXFile(wb, target); err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", appName, err)
		return 1
	}
	printTable(stdout, table)
	return 0
}

// parsePivotValues parses "Amount:sum,Qty:count". A field without a function
// is summed.
func parsePivotValues(s string) ([]gridcalc.PivotValue, error) {
	if strings.TrimSpace(s) == "" {
		return nil, errors.New("pivot: -values is required")
	}
	var out []gridcalc.PivotValue
	for _, part := range strings.Split(s, ",") {
		field, fn, hasFn := strings.Cut(strings.TrimSpace(part), ":")
		v := gridcalc.PivotValue{Field: strings.TrimSpace(field), Func: gridcalc.PivotSum}
		if v.Field == "" {
			return nil, fmt.Errorf("pivot: empty field in -values %q", s)
		}
		if hasFn {
			f, err := gridcalc.ParsePivotFunc(fn)
			if err != nil {
				return nil, fmt.Errorf("pivot: %w", err)
			}
			v.Func = f
		}
		out = append(out, v)
	}
	return out, nil
}

func printTable(w io.Writer, table *gridcalc.PivotTable) {
	fmt.Fprintln(w, strings.Join(table.Header, "\t"))
	for _, row := range table.Rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
}

func exitParse(err error) int {
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	return 2
}

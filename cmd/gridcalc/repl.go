package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/javajack/gridcalc"
)

const (
	historyFile = ".gridcalc_history"
	promptMain  = "gridcalc> "
)

const replHelp = `Commands:
  A1 = text       set a cell (text starting with "=" is a formula)
  A1              show a cell
  :sheet NAME     switch to a sheet
  :add [NAME]     add a sheet and switch to it
  :rename NAME    rename the current sheet
  :delete         delete the current sheet
  :copy CELL      copy a cell to the clipboard
  :cut CELL       cut a cell to the clipboard
  :paste CELL     paste the clipboard into a cell
  :show           describe the workbook
  :refresh        re-evaluate every formula on the current sheet
  :validate       check every formula
  :save [PATH]    save as xlsx
  :quit           leave
`

// session is the REPL state, separated from the line editor so commands can
// be driven directly.
type session struct {
	grid *gridcalc.Grid
	path string
	out  io.Writer
}

// errQuit ends the REPL loop.
var errQuit = errors.New("quit")

func (s *session) sheetName() string {
	return s.grid.Workbook().Sheet(s.grid.CurrentSheet()).Name
}

// exec runs one REPL line.
func (s *session) exec(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	if strings.HasPrefix(line, ":") {
		return s.command(line[1:])
	}

	target, text, assign := strings.Cut(line, "=")
	addr, ok := gridcalc.ParseAddress(strings.TrimSpace(target))
	if !ok {
		return fmt.Errorf("expected a cell such as B2 or B2 = text, got %q", line)
	}
	if !assign {
		c, _ := s.grid.Workbook().Sheet(s.grid.CurrentSheet()).Cell(addr)
		if c.IsFormula() {
			fmt.Fprintf(s.out, "%s %s → %s\n", addr, c.Formula, c.Content)
		} else {
			fmt.Fprintf(s.out, "%s %s\n", addr, c.Content)
		}
		return nil
	}

	s.grid.MoveTo(addr)
	text = strings.TrimPrefix(text, " ")
	if text == "" {
		s.grid.Delete()
		return nil
	}
	s.grid.Enter(text)
	fmt.Fprintf(s.out, "%s = %s\n", addr, s.grid.Display(addr))
	return nil
}

func (s *session) command(line string) error {
	name, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)
	switch strings.ToLower(name) {
	case "quit", "q", "exit":
		return errQuit
	case "help":
		fmt.Fprint(s.out, replHelp)
	case "sheet":
		if err := s.grid.SelectSheet(arg); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "sheet %s\n", s.sheetName())
	case "add":
		if _, err := s.grid.AddSheet(arg); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "sheet %s\n", s.sheetName())
	case "rename":
		if err := s.grid.RenameSheet(arg); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "sheet %s\n", s.sheetName())
	case "delete":
		if err := s.grid.DeleteSheet(); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "sheet %s\n", s.sheetName())
	case "copy", "cut", "paste":
		addr, ok := gridcalc.ParseAddress(arg)
		if !ok {
			return fmt.Errorf(":%s: expected a cell, got %q", name, arg)
		}
		s.grid.MoveTo(addr)
		switch strings.ToLower(name) {
		case "copy":
			s.grid.Copy()
		case "cut":
			s.grid.Cut()
		default:
			if err := s.grid.Paste(); err != nil {
				return err
			}
			s.grid.Commit()
			fmt.Fprintf(s.out, "%s = %s\n", addr, s.grid.Display(addr))
		}
	case "show":
		fmt.Fprint(s.out, gridcalc.Describe(s.grid.Workbook()))
	case "refresh":
		s.grid.Refresh()
		fmt.Fprint(s.out, gridcalc.Describe(s.grid.Workbook()))
	case "validate":
		issues := gridcalc.Validate(s.grid.Workbook())
		for _, issue := range issues {
			fmt.Fprintln(s.out, issue)
		}
		if len(issues) == 0 {
			fmt.Fprintln(s.out, "no issues")
		}
	case "save":
		if arg != "" {
			s.path = arg
		}
		if s.path == "" {
			return errors.New("save: no file name given")
		}
		s.grid.Commit()
		if err := gridcalc.SaveXLSXFile(s.grid.Workbook(), s.path); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "saved %s\n", s.path)
	default:
		return fmt.Errorf("unknown command :%s (type :help)", name)
	}
	return nil
}

func cmdRepl(args []string, stdout, stderr io.Writer) int {
	fs, opts := newFlagSet("repl", stderr)
	if err := fs.Parse(args); err != nil {
		return exitParse(err)
	}

	wb := gridcalc.NewWorkbook()
	path := fs.Arg(0)
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if wb, err = gridcalc.OpenXLSXFile(path); err != nil {
				fmt.Fprintf(stderr, "%s: %v\n", appName, err)
				return 1
			}
		}
	}
	s := &session{grid: gridcalc.NewGrid(wb, opts.build(stderr)...), path: path, out: stdout}
	s.grid.RefreshAll()

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	fmt.Fprintf(stdout, "%s %s (type :help)\n", appName, version)
	for {
		line, err := ln.Prompt(s.sheetName() + " " + promptMain)
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			fmt.Fprintln(stdout)
			return 0
		}
		if err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", appName, err)
			return 1
		}
		if strings.TrimSpace(line) != "" {
			ln.AppendHistory(line)
		}
		if err := s.exec(line); err != nil {
			if errors.Is(err, errQuit) {
				return 0
			}
			fmt.Fprintln(stderr, err)
		}
	}
}

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/hashicorp/go-set/v2"
	"github.com/peterh/liner"
	"github.com/sanity-io/litter"

	"github.com/elhewaty/circt/pkg/api"
)

const (
	historyFile = ".firtype_history"
	promptMain  = "firtype> "
)

const replHelp = `Commands:
  <type>                  Parse and print the type
  <dest> <= <src>         Check the connection and explain violations
  :type <Name> = <type>   Define a named type
  :names                  List defined type names
  :props <type>           Print the recursive properties
  :fields <type>          Print the field ID table
  :json <type>            Print the JSON description and bit layout
  :dump <type>            Print the description tree as a Go literal
  :help                   Show this help
  :quit                   Exit`

var replCommands = []string{
	":dump", ":exit", ":fields", ":help", ":json", ":names", ":props", ":quit", ":type",
}

// runREPL is the interactive loop behind -repl. Named types from the
// config file are already defined on the context; types defined with
// :type join them for the rest of the session.
func runREPL(ctx *api.Context, popts api.PrintOptions, copts api.CheckOptions) error {
	fmt.Printf("firtype %s\nCtrl+C cancels input, Ctrl+D exits. Type :help for commands.\n", version)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	ln.SetCompleter(func(line string) []string { return complete(ctx, line) })

	// Names defined in this session, as opposed to the config file.
	session := set.New[string](8)

	for {
		line, err := ln.Prompt(promptMain)
		if errors.Is(err, io.EOF) {
			fmt.Println()
			return nil
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if err != nil {
			return err
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		ln.AppendHistory(line)

		if strings.HasPrefix(input, ":") {
			if quit := replCommand(ctx, popts, session, input); quit {
				return nil
			}
			continue
		}

		if strings.Contains(input, "<=") {
			replConnect(ctx, copts, input)
			continue
		}

		t, errs := ctx.Parse(input)
		if len(errs) > 0 {
			printParseErrors(errs)
			continue
		}
		fmt.Println(ctx.Print(t, popts))
	}
}

func replCommand(ctx *api.Context, popts api.PrintOptions, session *set.Set[string], input string) (quit bool) {
	cmd, rest, _ := strings.Cut(input, " ")
	rest = strings.TrimSpace(rest)

	switch cmd {
	case ":quit", ":q", ":exit":
		return true

	case ":help", ":h":
		fmt.Println(replHelp)

	case ":type":
		name, source, ok := strings.Cut(rest, "=")
		if !ok {
			fmt.Println("usage: :type <Name> = <type>")
			break
		}
		name = strings.TrimSpace(name)
		source = strings.TrimSpace(source)
		if err := ctx.Define(name, source); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			break
		}
		session.Insert(name)
		if t, ok := ctx.Lookup(name); ok {
			fmt.Println(ctx.Print(t, popts))
		}

	case ":names":
		names := ctx.NamedTypes()
		if len(names) == 0 {
			fmt.Println("no named types")
			break
		}
		for _, n := range names {
			marker := " "
			if session.Contains(n) {
				marker = "*"
			}
			t, _ := ctx.Lookup(n)
			fmt.Printf("%s %-16s %s\n", marker, n, t)
		}

	case ":props", ":fields", ":json", ":dump":
		if rest == "" {
			fmt.Printf("usage: %s <type>\n", cmd)
			break
		}
		t, errs := ctx.Parse(rest)
		if len(errs) > 0 {
			printParseErrors(errs)
			break
		}
		replView(ctx, cmd, t)

	default:
		fmt.Printf("unknown command %s. Type :help for commands.\n", cmd)
	}
	return false
}

func replView(ctx *api.Context, cmd string, t api.Type) {
	switch cmd {
	case ":props":
		fmt.Print(formatProps(t))
	case ":fields":
		table, err := ctx.FieldTable(t)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return
		}
		fmt.Print(table)
	case ":json":
		b, err := json.MarshalIndent(describeResult(ctx, t), "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return
		}
		fmt.Println(string(b))
	case ":dump":
		litter.Dump(ctx.Describe(t))
	}
}

func replConnect(ctx *api.Context, copts api.CheckOptions, input string) {
	dest, src, errs := ctx.ParseConnect(input)
	if len(errs) > 0 {
		printParseErrors(errs)
		return
	}
	result, err := ctx.CheckConnect(dest, src, copts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	renderDiagnostics(os.Stdout, result.Diagnostics)
	if result.Valid {
		fmt.Println("ok")
	}
}

// complete offers ":" commands at the start of a line and named types
// for a trailing identifier.
func complete(ctx *api.Context, line string) []string {
	if strings.HasPrefix(line, ":") && !strings.Contains(line, " ") {
		var out []string
		for _, c := range replCommands {
			if strings.HasPrefix(c, line) {
				out = append(out, c)
			}
		}
		return out
	}

	i := len(line)
	for i > 0 && isNameByte(line[i-1]) {
		i--
	}
	prefix := line[i:]
	if prefix == "" {
		return nil
	}
	var out []string
	for _, n := range ctx.NamedTypes() {
		if strings.HasPrefix(n, prefix) {
			out = append(out, line[:i]+n)
		}
	}
	return out
}

func isNameByte(c byte) bool {
	return c == '_' || c == '$' ||
		('0' <= c && c <= '9') || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Binary goannacli loads a set of module source files, runs them through
// the front-end pipeline (internal/bundle), and either prints the
// resulting Output as JSON or drops into an interactive shell for
// inspecting the loaded bundle's declarations, rules, and tables.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/maybetonyfu/goanna/internal/bundle"
	"github.com/maybetonyfu/goanna/internal/cst"
)

var (
	format = flag.String("format", "json", "output format: json or text (text is a one-line-per-rule summary)")
	repl   = flag.Bool("repl", false, "drop into an interactive shell for inspecting the loaded bundle instead of printing its output")
	out    = flag.String("out", "", "write output to this file instead of stdout (ignored with -repl)")
	idSeed = flag.Int("id-seed", 1, "starting value for the bundle-wide node id counter")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: goannacli [flags] <module.hs> [module.hs...]\n\n")
		fmt.Fprintf(os.Stderr, "Runs the type-error-explanation front end over one or more module\n")
		fmt.Fprintf(os.Stderr, "source files and prints (or lets you browse) the resulting bundle.\n\n")
		fmt.Fprintf(os.Stderr, "Each file's module name is its base name without extension, so\n")
		fmt.Fprintf(os.Stderr, "Data/Stack.hs is loaded as module \"Stack\".\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExit codes:\n")
		fmt.Fprintf(os.Stderr, "  0  Bundle produced with no parsing or import errors\n")
		fmt.Fprintf(os.Stderr, "  1  Parsing, import, or other pipeline error\n")
		fmt.Fprintf(os.Stderr, "  2  Usage error\n")
	}
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	sources, err := loadSources(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	pipeline := bundle.NewPipeline(surfaceParser{})
	output, runErr := pipeline.Run(sources, *idSeed)
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "goannacli: %v\n", runErr)
		if output == nil {
			os.Exit(1)
		}
		// Fall through: print whatever partial Output the pipeline reached
		// before the error, same as original_source/parser/web.py's handler
		// returning state up to the point it stopped at.
	}

	if *repl {
		runShell(output)
		return
	}

	if err := writeOutput(output); err != nil {
		fmt.Fprintf(os.Stderr, "goannacli: %v\n", err)
		os.Exit(1)
	}
	if runErr != nil {
		os.Exit(1)
	}
}

func loadSources(paths []string) ([]bundle.Source, error) {
	sources := make([]bundle.Source, 0, len(paths))
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		base := filepath.Base(path)
		moduleName := strings.TrimSuffix(base, filepath.Ext(base))
		sources = append(sources, bundle.Source{ModuleName: moduleName, Content: string(content)})
	}
	return sources, nil
}

func writeOutput(output *bundle.Output) error {
	w := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	switch *format {
	case "text":
		return writeText(w, output)
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(output)
	}
}

func writeText(w *os.File, output *bundle.Output) error {
	fmt.Fprintf(w, "declarations: %d\n", len(output.Declarations))
	fmt.Fprintf(w, "rules: %d\n", len(output.Rules))
	for _, r := range output.Rules {
		axiom := ""
		if r.Axiom {
			axiom = " (axiom)"
		}
		fmt.Fprintf(w, "  %s/%s.%d%s: %s\n", r.Head.Type, r.Head.Name, r.Head.ID, axiom, r.Body)
	}
	if len(output.ParsingErrors) > 0 {
		fmt.Fprintf(w, "parsing errors: %d\n", len(output.ParsingErrors))
	}
	if len(output.ImportErrors) > 0 {
		fmt.Fprintf(w, "import errors: %d\n", len(output.ImportErrors))
		for _, ie := range output.ImportErrors {
			fmt.Fprintf(w, "  %s (node %d)\n", ie.Name, ie.NodeID)
		}
	}
	return nil
}

// surfaceParser is a stand-in cst.Parser. The surface grammar is an
// explicit external collaborator (spec.md §1/§6 treats the concrete
// syntax tree as an input this front end consumes, not something it
// produces): wiring in a real tree-sitter-Haskell binding is the one
// integration step left to a deployment of this CLI. Swap this type's
// Parse method - or the value passed to bundle.NewPipeline in main - for
// a genuine cst.Parser implementation to use goannacli against real
// source.
type surfaceParser struct{}

func (surfaceParser) Parse(moduleName, source string) (cst.Node, error) {
	return nil, fmt.Errorf("goannacli: no surface parser configured; wire a tree-sitter-Haskell cst.Parser into cmd/goannacli to parse module %q", moduleName)
}

const (
	shellPrompt = "goanna> "
)

// runShell is an interactive loop for browsing a loaded Output, mirroring
// interpreter.Interpreter's readline-based REPL (interpreter/interpreter.go)
// repurposed to browse a finished bundle's tables rather than evaluate
// Datalog queries.
func runShell(output *bundle.Output) {
	rl, err := readline.New(shellPrompt)
	if err != nil {
		fmt.Fprintf(os.Stderr, "goannacli: %v\n", err)
		os.Exit(1)
	}
	defer rl.Close()

	fmt.Fprintln(os.Stdout, "goannacli interactive shell. Type :help for commands, :quit to exit.")
	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF on Ctrl-D, readline.ErrInterrupt on Ctrl-C
			return
		}
		readline.AddHistory(line)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, ":") {
			fmt.Fprintf(os.Stdout, "unrecognized input %q, expected a : command (see :help)\n", line)
			continue
		}
		fields := strings.Fields(line)
		cmd, rest := fields[0], fields[1:]
		switch cmd {
		case ":quit", ":q":
			return
		case ":help", ":h":
			printShellHelp()
		case ":declarations", ":decls":
			printDeclarations(output, rest)
		case ":rules":
			printRules(output, rest)
		case ":classes":
			printClasses(output)
		case ":arguments", ":args":
			printArguments(output, rest)
		case ":nodegraph":
			printNodeGraph(output)
		case ":errors":
			printErrors(output)
		default:
			fmt.Fprintf(os.Stdout, "unknown command %q, type :help for a list\n", cmd)
		}
	}
}

func printShellHelp() {
	fmt.Fprintln(os.Stdout, "Commands:")
	fmt.Fprintln(os.Stdout, "  :declarations [prefix]   list known declaration names, optionally filtered")
	fmt.Fprintln(os.Stdout, "  :rules [name]            list generated rules, optionally filtered by head name")
	fmt.Fprintln(os.Stdout, "  :classes                 list every class and its superclasses")
	fmt.Fprintln(os.Stdout, "  :arguments <name>        list the argument-position sets for a declaration head")
	fmt.Fprintln(os.Stdout, "  :nodegraph               list every lexical parent/child node-id edge")
	fmt.Fprintln(os.Stdout, "  :errors                  list parsing and import errors")
	fmt.Fprintln(os.Stdout, "  :help                    show this message")
	fmt.Fprintln(os.Stdout, "  :quit                    exit the shell")
}

func printDeclarations(output *bundle.Output, args []string) {
	prefix := ""
	if len(args) > 0 {
		prefix = args[0]
	}
	names := append([]string(nil), output.Declarations...)
	sort.Strings(names)
	for _, n := range names {
		if prefix == "" || strings.HasPrefix(n, prefix) {
			fmt.Fprintln(os.Stdout, n)
		}
	}
}

func printRules(output *bundle.Output, args []string) {
	filter := ""
	if len(args) > 0 {
		filter = args[0]
	}
	for _, r := range output.Rules {
		if filter != "" && r.Head.Name != filter {
			continue
		}
		axiom := ""
		if r.Axiom {
			axiom = " (axiom)"
		}
		fmt.Fprintf(os.Stdout, "%s/%s.%d%s: %s\n", r.Head.Type, r.Head.Name, r.Head.ID, axiom, r.Body)
	}
}

func printClasses(output *bundle.Output) {
	names := make([]string, 0, len(output.Classes))
	for name := range output.Classes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(os.Stdout, "%s: %+v\n", name, output.Classes[name])
	}
}

func printArguments(output *bundle.Output, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stdout, "usage: :arguments <declaration-name>")
		return
	}
	set, ok := output.Arguments[args[0]]
	if !ok {
		fmt.Fprintf(os.Stdout, "no argument set recorded for %q\n", args[0])
		return
	}
	fmt.Fprintf(os.Stdout, "%+v\n", set)
}

func printNodeGraph(output *bundle.Output) {
	for _, e := range output.NodeGraph {
		fmt.Fprintf(os.Stdout, strconv.Itoa(e.Parent)+" -> "+strconv.Itoa(e.Child)+"\n")
	}
}

func printErrors(output *bundle.Output) {
	for _, p := range output.ParsingErrors {
		fmt.Fprintf(os.Stdout, "parse error: line %d-%d, col %d-%d\n", p.FromLine, p.ToLine, p.FromCol, p.ToCol)
	}
	for _, ie := range output.ImportErrors {
		fmt.Fprintf(os.Stdout, "import error: %s (node %d)\n", ie.Name, ie.NodeID)
	}
}

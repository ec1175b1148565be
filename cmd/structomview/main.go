// Command structomview is a read-only terminal browser for a Structom
// value: a two-pane tree/detail view over whatever --decl/--type or a
// dynamic `any` load decodes from the input file.
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	args := os.Args[1:]

	var declPath, typeName, format string
	var positional []string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--decl":
			i++
			if i < len(args) {
				declPath = args[i]
			}
		case "--type":
			i++
			if i < len(args) {
				typeName = args[i]
			}
		case "--format":
			i++
			if i < len(args) {
				format = args[i]
			}
		case "--help", "-h":
			printHelp()
			os.Exit(0)
		default:
			positional = append(positional, args[i])
		}
	}

	if len(positional) < 1 {
		printUsage()
		os.Exit(1)
	}
	path := positional[0]

	if _, err := os.Stat(path); err != nil {
		fmt.Fprintf(os.Stderr, "Error: value file not found: %s\n", path)
		os.Exit(1)
	}

	v, target, prov, err := loadValue(path, declPath, typeName, format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	m := NewModel(path, v, target, prov)

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: structomview [--decl FILE --type NAME] [--format obj|bin|json] <value-file>\n")
	fmt.Fprintf(os.Stderr, "Try 'structomview --help' for more information.\n")
}

func printHelp() {
	fmt.Println("structomview - browse a Structom value as a tree")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  structomview [options] <value-file>")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  --decl FILE     Declaration file the value conforms to")
	fmt.Println("  --type NAME     Root type name within --decl (required with --decl)")
	fmt.Println("  --format FMT    Input format: obj, bin, json (default: inferred from extension)")
	fmt.Println("  -h, --help      Show this help")
	fmt.Println()
	fmt.Println("KEYS:")
	fmt.Println("  up/down, j/k    Move cursor")
	fmt.Println("  left/right      Collapse/expand")
	fmt.Println("  tab             Switch focus between tree and detail pane")
	fmt.Println("  y               Yank the selected value's textual form to the clipboard")
	fmt.Println("  ?               Toggle help overlay")
	fmt.Println("  q               Quit")
}

// Command h2 compiles H2 source files and prints the compile-result
// contract as JSON or YAML.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	h2 "github.com/h2lang/h2"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

var (
	flagFormat   string
	flagMaxStep  int
	flagMaxDepth int
	flagOnLimit  string
	flagDebug    bool
)

func main() {
	root := &cobra.Command{
		Use:           "h2",
		Short:         "compile H2 robot movement programs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json or yaml")
	root.PersistentFlags().IntVar(&flagMaxStep, "max-step", 0, "set MAX_STEP unless the source has its own MAX_STEP directive (0 = use source directive/default)")
	root.PersistentFlags().IntVar(&flagMaxDepth, "max-depth", 0, "set MAX_DEPTH unless the source has its own MAX_DEPTH directive (0 = use source directive/default)")
	root.PersistentFlags().StringVar(&flagOnLimit, "on-limit", "", "set ON_LIMIT (ERROR or TRUNCATE) unless the source has its own ON_LIMIT directive")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if flagOnLimit != "" {
			v, err := parseOnLimitFlag(flagOnLimit)
			if err != nil {
				return err
			}
			flagOnLimit = v
		}
		return nil
	}

	root.AddCommand(compileCmd(), validateCmd(), versionCmd(), replCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

func compileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compile <file|->",
		Short: "compile a source file and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := readSource(args[0])
			if err != nil {
				os.Exit(2)
				return nil
			}
			logger := h2.NewLogger(flagDebug)
			result := h2.Compile(applyOverrides(source))
			if err := printResult(result); err != nil {
				return err
			}
			if result.Status != "success" {
				for _, ce := range result.Errors {
					logger.ReportError(source, ce)
				}
				os.Exit(1)
			}
			return nil
		},
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file|->",
		Short: "report only whether a source file compiles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := readSource(args[0])
			if err != nil {
				os.Exit(2)
				return nil
			}
			if !h2.Validate(applyOverrides(source)) {
				os.Exit(1)
			}
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the compiler version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(h2.Version())
			return nil
		},
	}
}

func replCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "interactively compile one program per line",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl()
		},
	}
}

func readSource(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "h2: %v\n", err)
			return "", err
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "h2: %v\n", err)
		return "", err
	}
	return string(data), nil
}

// applyOverrides prepends directive lines for any CLI flag the user set
// explicitly, ahead of the file's own directives. Directive semantics are
// last-wins, so a directive already present in the source still takes
// precedence over the corresponding CLI flag.
func applyOverrides(source string) string {
	var b strings.Builder
	if flagMaxStep > 0 {
		fmt.Fprintf(&b, "MAX_STEP=%d\n", flagMaxStep)
	}
	if flagMaxDepth > 0 {
		fmt.Fprintf(&b, "MAX_DEPTH=%d\n", flagMaxDepth)
	}
	if flagOnLimit != "" {
		fmt.Fprintf(&b, "ON_LIMIT=%s\n", flagOnLimit)
	}
	b.WriteString(source)
	return b.String()
}

func printResult(result h2.CompileResult) error {
	switch flagFormat {
	case "yaml":
		out, err := yaml.Marshal(result)
		if err != nil {
			return err
		}
		fmt.Print(string(out))
	default:
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	}
	return nil
}

// runRepl puts the terminal into raw mode so line editing (backspace,
// Ctrl-C, Ctrl-D) behaves predictably, reads one line at a time, and
// compiles each line as a standalone program.
func runRepl() error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return compileLines(os.Stdin)
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return err
	}
	defer term.Restore(fd, oldState)

	fmt.Print("h2> ")
	var line []byte
	buf := make([]byte, 1)
	for {
		n, err := os.Stdin.Read(buf)
		if n == 0 || err != nil {
			fmt.Println()
			return nil
		}
		b := buf[0]
		switch b {
		case '\r', '\n':
			fmt.Print("\r\n")
			term.Restore(fd, oldState)
			evalReplLine(string(line))
			term.MakeRaw(fd)
			line = line[:0]
			fmt.Print("h2> ")
		case 3: // Ctrl-C
			fmt.Print("\r\n")
			return nil
		case 4: // Ctrl-D
			if len(line) == 0 {
				fmt.Print("\r\n")
				return nil
			}
		case 127, 8: // backspace
			if len(line) > 0 {
				line = line[:len(line)-1]
				fmt.Print("\b \b")
			}
		default:
			line = append(line, b)
			os.Stdout.Write(buf)
		}
	}
}

func evalReplLine(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	result := h2.Compile(line)
	out, err := json.Marshal(result)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(string(out))
}

func compileLines(stdin *os.File) error {
	scanner := bufio.NewScanner(stdin)
	for scanner.Scan() {
		evalReplLine(scanner.Text())
	}
	return scanner.Err()
}

func parseOnLimitFlag(v string) (string, error) {
	switch strings.ToUpper(v) {
	case "ERROR", "TRUNCATE":
		return strings.ToUpper(v), nil
	default:
		return "", fmt.Errorf("invalid --on-limit %q", v)
	}
}

package commands

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// InteractiveCmd creates the interactive command
func InteractiveCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "interactive",
		Short: "Start an interactive session (load once, run multiple commands)",
		Long: `Start an interactive session where loaded tables, rules and weights persist between commands.
The session will keep running until you type 'exit' or 'quit'.

Type 'help' to see available commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "\n🚀 Starting interactive session...")
			fmt.Fprintln(out, "Type 'help' for available commands, 'exit' or 'quit' to leave")

			return runSession(cmd.Root(), cmd.InOrStdin(), out)
		},
	}

	return cmd
}

// runSession reads command lines from in and runs them against root until exit, quit or EOF
func runSession(root *cobra.Command, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(out, "> ")

		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts, err := parseCommandLine(line)
		if err != nil {
			fmt.Fprintf(out, "❌ Error parsing command: %v\n\n", err)
			continue
		}
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "exit", "quit":
			fmt.Fprintln(out, "👋 Goodbye!")
			return nil
		case "help":
			printInteractiveHelp(out, root)
			continue
		}

		runLine(root, parts, out)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading input: %w", err)
	}

	return nil
}

// runLine resolves parts to a (possibly nested) command and runs its RunE directly.
// Going through Execute would re-run PersistentPreRunE and rebuild the session.
func runLine(root *cobra.Command, parts []string, out io.Writer) {
	targetCmd, cmdArgs, err := root.Find(parts)
	if err != nil || targetCmd == root || targetCmd.Name() == "interactive" {
		fmt.Fprintf(out, "❌ Unknown command: %s (type 'help' for available commands)\n\n", strings.Join(parts, " "))
		return
	}

	if targetCmd.RunE == nil && targetCmd.Run == nil {
		printSubcommands(out, targetCmd)
		return
	}

	// Reset command flags and args
	targetCmd.Flags().VisitAll(func(flag *pflag.Flag) {
		flag.Changed = false
		_ = flag.Value.Set(flag.DefValue)
	})

	if err := targetCmd.ParseFlags(cmdArgs); err != nil {
		fmt.Fprintf(out, "❌ Error parsing flags: %v\n\n", err)
		return
	}

	// Get non-flag args after parsing flags
	cmdArgs = targetCmd.Flags().Args()

	if targetCmd.Args != nil {
		if err := targetCmd.Args(targetCmd, cmdArgs); err != nil {
			fmt.Fprintf(out, "❌ Error: %v\n\n", err)
			return
		}
	}

	if targetCmd.RunE != nil {
		if err := targetCmd.RunE(targetCmd, cmdArgs); err != nil {
			fmt.Fprintf(out, "❌ Error: %v\n\n", err)
		}
	} else {
		targetCmd.Run(targetCmd, cmdArgs)
	}
}

func printInteractiveHelp(out io.Writer, root *cobra.Command) {
	fmt.Fprintln(out, "\nAvailable commands:")

	for _, cmd := range sortedCommands(root) {
		if cmd.HasSubCommands() {
			for _, sub := range sortedCommands(cmd) {
				fmt.Fprintf(out, "  %-30s %s\n", cmd.Name()+" "+sub.Use, sub.Short)
			}
			continue
		}
		fmt.Fprintf(out, "  %-30s %s\n", cmd.Use, cmd.Short)
	}

	fmt.Fprintln(out, "\n  help                           Show this help message")
	fmt.Fprintln(out, "  exit, quit                     Exit the interactive session")
}

func printSubcommands(out io.Writer, parent *cobra.Command) {
	fmt.Fprintf(out, "\n%s subcommands:\n", parent.Name())
	for _, sub := range sortedCommands(parent) {
		fmt.Fprintf(out, "  %-30s %s\n", parent.Name()+" "+sub.Use, sub.Short)
	}
	fmt.Fprintln(out)
}

// sortedCommands lists the runnable children of parent by name, leaving out
// the ones that make no sense inside a session
func sortedCommands(parent *cobra.Command) []*cobra.Command {
	var cmds []*cobra.Command
	for _, cmd := range parent.Commands() {
		switch cmd.Name() {
		case "interactive", "completion", "help":
			continue
		}
		cmds = append(cmds, cmd)
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name() < cmds[j].Name() })
	return cmds
}

// parseCommandLine splits a command line into arguments, respecting quoted strings
// Supports both single and double quotes
func parseCommandLine(line string) ([]string, error) {
	var args []string
	var current strings.Builder
	var inQuote rune // 0 if not in quote, '"' or '\'' if in quote

	for _, r := range line {
		switch {
		case inQuote != 0:
			if r == inQuote {
				inQuote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '"' || r == '\'':
			inQuote = r
		case unicode.IsSpace(r):
			if current.Len() > 0 {
				args = append(args, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}

	if inQuote != 0 {
		return nil, fmt.Errorf("unclosed quote: %c", inQuote)
	}

	if current.Len() > 0 {
		args = append(args, current.String())
	}

	return args, nil
}

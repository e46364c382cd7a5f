package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// commands that make no sense inside a session
var notInteractive = map[string]bool{
	"interactive": true,
	"serve":       true,
	"completion":  true,
	"help":        true,
}

// InteractiveCmd creates the interactive command
func InteractiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "interactive",
		Short: "Run several commands against one store and one OAuth session",
		Long: `Start a session that keeps the store, solver and Google clients open between commands.
With the memory store this is the only way to generate a roster and then work with it.

Type 'help' to list commands and 'exit' or 'quit' to leave.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			commands := sessionCommands(cmd.Parent())
			fmt.Println("\nInteractive session started. Type 'help' for commands, 'exit' to leave")
			return runSession(os.Stdin, commands)
		},
	}
}

func sessionCommands(root *cobra.Command) map[string]*cobra.Command {
	commands := make(map[string]*cobra.Command)
	for _, sub := range root.Commands() {
		if !notInteractive[sub.Name()] {
			commands[sub.Name()] = sub
		}
	}
	return commands
}

func runSession(in io.Reader, commands map[string]*cobra.Command) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		words, err := splitLine(scanner.Text())
		if err != nil {
			fmt.Printf("❌ %v\n\n", err)
			continue
		}
		if len(words) == 0 {
			continue
		}

		switch words[0] {
		case "exit", "quit":
			return nil
		case "help":
			printInteractiveHelp(commands)
			continue
		}

		target, ok := commands[words[0]]
		if !ok {
			fmt.Printf("❌ Unknown command: %s (type 'help' for available commands)\n\n", words[0])
			continue
		}
		if err := runInSession(target, words[1:]); err != nil {
			fmt.Printf("❌ Error: %v\n\n", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading input: %w", err)
	}
	return nil
}

// runInSession calls the command's RunE without Execute, so the root
// PersistentPreRunE does not reopen the store
func runInSession(cmd *cobra.Command, args []string) error {
	resetFlags(cmd.Flags())

	if err := cmd.ParseFlags(args); err != nil {
		return err
	}
	if err := cmd.ValidateRequiredFlags(); err != nil {
		return err
	}
	positional := cmd.Flags().Args()
	if err := cmd.ValidateArgs(positional); err != nil {
		return err
	}
	if cmd.RunE == nil {
		return fmt.Errorf("%s cannot be run here", cmd.Name())
	}
	return cmd.RunE(cmd, positional)
}

func resetFlags(flags *pflag.FlagSet) {
	flags.VisitAll(func(flag *pflag.Flag) {
		// Set on a slice flag appends
		if slice, ok := flag.Value.(pflag.SliceValue); ok {
			_ = slice.Replace(nil)
		} else {
			_ = flag.Value.Set(flag.DefValue)
		}
		flag.Changed = false
	})
}

func printInteractiveHelp(commands map[string]*cobra.Command) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("\nAvailable commands:")
	for _, name := range names {
		fmt.Printf("  %-30s %s\n", commands[name].Use, commands[name].Short)
	}
	fmt.Printf("\n  %-30s %s\n", "help", "Show this help message")
	fmt.Printf("  %-30s %s\n\n", "exit, quit", "Leave the session")
}

// splitLine breaks a line into words, keeping single or double quoted text together
func splitLine(line string) ([]string, error) {
	var words []string
	var word strings.Builder
	var quote rune
	inWord := false

	for _, r := range line {
		switch {
		case quote != 0 && r == quote:
			quote = 0
		case quote != 0:
			word.WriteRune(r)
		case r == '"' || r == '\'':
			quote = r
			inWord = true
		case unicode.IsSpace(r):
			if inWord {
				words = append(words, word.String())
				word.Reset()
				inWord = false
			}
		default:
			word.WriteRune(r)
			inWord = true
		}
	}

	if quote != 0 {
		return nil, fmt.Errorf("unclosed quote: %c", quote)
	}
	if inWord {
		words = append(words, word.String())
	}
	return words, nil
}

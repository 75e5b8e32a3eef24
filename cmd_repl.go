package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"stock-screener/screener"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive screening conversation",
	Long: `Reads queries line by line and answers them in one conversation, so
follow-ups such as "+1 exclude banking" refine the previous results.

Type "help" for the syntax, "reset" to forget the conversation and
"exit" to quit.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := newEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer engine.Close()
		return repl(cmd.InOrStdin(), cmd.OutOrStdout(), engine.NewSession())
	},
}

func repl(in io.Reader, out io.Writer, session *screener.Session) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			return nil
		case "reset":
			session.Reset()
			fmt.Fprintln(out, "Conversation reset.")
			continue
		}
		printResponse(out, session.Query(line))
	}
}

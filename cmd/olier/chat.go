package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/petasbytes/olier/internal/fsops"
	"github.com/petasbytes/olier/internal/provider"
	"github.com/petasbytes/olier/internal/runner"
	"github.com/petasbytes/olier/internal/session"
	"github.com/petasbytes/olier/memory"
)

var (
	youLabel   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Render("You")
	olierLabel = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11")).Render("Olier")
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat in the terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Flags())
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			model, err := provider.FirstModel(ctx, a.runner.Provider)
			if err != nil {
				return fmt.Errorf("resolve model: %w", err)
			}
			transcripts, err := fsops.NewRoot(a.cfg.Chat.TranscriptDir)
			if err != nil {
				return err
			}
			sess, _ := a.store.Get("")
			return repl(ctx, os.Stdin, cmd.OutOrStdout(), sess, a.runner, model, transcripts)
		},
	}
}

// saveCmd prefixes a line that saves the transcript instead of asking a question.
const saveCmd = "/save"

// repl reads one question per line from in and streams replies to out until
// in is exhausted or ctx is done. "/save <file>" writes the transcript so far
// to <file> under transcripts.
func repl(ctx context.Context, in io.Reader, out io.Writer, sess *session.Session, r *runner.Runner, model string, transcripts fsops.Root) error {
	fmt.Fprintf(out, "Chat with Olier (%s <file> saves the transcript, Ctrl-C to quit)\n", saveCmd)

	// stdin reader goroutine -> lines into channel
	lines := make(chan string)
	scanner := bufio.NewScanner(in)
	go func() {
		defer close(lines)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		fmt.Fprintf(out, "%s: ", youLabel)
		var (
			text string
			ok   bool
		)
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "\nExiting...")
			return nil
		case text, ok = <-lines:
			if !ok {
				fmt.Fprintln(out)
				return scanner.Err()
			}
		}

		if name, ok := strings.CutPrefix(text, saveCmd+" "); ok {
			path, err := transcripts.WriteFile(strings.TrimSpace(name), sess.Conv.Transcript()+"\n")
			if err != nil {
				fmt.Fprintln(out, errStyle.Render("save: "+err.Error()))
			} else {
				fmt.Fprintf(out, "saved %s\n", path)
			}
			continue
		}

		fmt.Fprintf(out, "%s: ", olierLabel)
		printed := 0
		_, err := sess.Submit(ctx, r, model, text, func(snapshot string) {
			// Each snapshot extends the last one; print only what is new.
			fmt.Fprint(out, snapshot[printed:])
			printed = len(snapshot)
		})
		fmt.Fprintln(out)
		switch {
		case errors.Is(err, memory.ErrInvalidTurn):
			continue
		case errors.Is(err, context.Canceled):
			fmt.Fprintln(out, "Exiting...")
			return nil
		case err != nil:
			fmt.Fprintln(out, errStyle.Render("error: "+err.Error()))
		}
	}
}

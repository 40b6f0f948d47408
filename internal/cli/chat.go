package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/domain"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/usecase"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive conversation in the terminal",
	Long: `Start a conversation with the assistant. Follow-up questions are rewritten
with the earlier turns before retrieval. Type salir, exit or chau to leave.`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

var (
	userPrompt  = color.New(color.FgBlue, color.Bold).SprintFunc()
	botLabel    = color.New(color.FgYellow, color.Bold).SprintFunc()
	sourceLabel = color.New(color.FgHiBlack).SprintFunc()
	errorLabel  = color.New(color.FgRed).SprintFunc()
)

// streamAsker is the part of the assistant the REPL needs.
type streamAsker interface {
	AnswerStream(ctx context.Context, question string, history []domain.Turn) (*usecase.StreamAnswer, error)
}

func runChat(cmd *cobra.Command, args []string) error {
	assistant, idx, err := newAssistant()
	if err != nil {
		return err
	}
	defer idx.Close()

	fmt.Println("Asistente de burocracia US. Escribe 'salir' para terminar.")
	return chatLoop(cmd.Context(), assistant, os.Stdin, os.Stdout)
}

// chatLoop reads questions from in until EOF or an exit word. Failed turns
// are reported and left out of the history.
func chatLoop(ctx context.Context, asker streamAsker, in io.Reader, out io.Writer) error {
	session := usecase.NewSession()
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprintf(out, "\n%s ", userPrompt("Tú:"))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if isExitWord(question) {
			return nil
		}

		answer, err := streamTurn(ctx, asker, question, session.History(), out)
		if err != nil {
			fmt.Fprintf(out, "\n%s %v\n", errorLabel("Error:"), err)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}
		session.Record(question, answer)
	}
}

func streamTurn(ctx context.Context, asker streamAsker, question string, history []domain.Turn, out io.Writer) (string, error) {
	res, err := asker.AnswerStream(ctx, question, history)
	if err != nil {
		return "", err
	}
	defer res.Stream.Close()

	fmt.Fprintf(out, "%s ", botLabel("Asistente:"))
	var sb strings.Builder
	for res.Stream.Next() {
		fragment := res.Stream.Fragment()
		sb.WriteString(fragment)
		fmt.Fprint(out, fragment)
	}
	fmt.Fprintln(out)
	if err := res.Stream.Err(); err != nil {
		return "", err
	}

	for _, s := range res.Sources {
		fmt.Fprintf(out, "  %s\n", sourceLabel("📄 "+s))
	}
	return sb.String(), nil
}

func isExitWord(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "salir", "exit", "chau":
		return true
	}
	return false
}

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/domain"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/port"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/usecase"
)

// endOfText terminates a multi-line text in the review prompt.
const endOfText = "FIN"

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review a news text against the editorial rules",
	Long: `Paste a text and finish it with a line containing only FIN. The text is
checked against the rules corpus, with audited interviews from the feedback
corpus as style reference. Type salir to leave.`,
	RunE: runReview,
}

func init() {
	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	rules, err := openCorpus(cfg.Review.RulesCorpus)
	if err != nil {
		return err
	}
	defer rules.Close()

	var history port.VectorIndex
	feedback, err := openCorpus(cfg.Review.HistoryCorpus)
	switch {
	case err == nil:
		defer feedback.Close()
		history = feedback
	case errors.Is(err, domain.ErrStoreUnavailable):
		fmt.Println("No audited examples yet; reviewing against the rules only.")
	default:
		return err
	}

	gen, err := newGenerator()
	if err != nil {
		return err
	}

	reviewer := usecase.NewReviewer(rules, history, gen, cfg.Review.RulesK, cfg.Review.HistoryK)
	return reviewLoop(cmd.Context(), reviewer, os.Stdin, os.Stdout)
}

type textReviewer interface {
	Review(ctx context.Context, text string) (string, error)
}

func reviewLoop(ctx context.Context, reviewer textReviewer, in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)
	for {
		fmt.Fprintf(out, "\nPega la noticia (termina con una línea '%s', o escribe 'salir'):\n", endOfText)
		text, quit, err := readText(reader)
		if err != nil {
			return err
		}
		if quit {
			return nil
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		fmt.Fprintln(out, "Analizando...")
		verdict, err := reviewer.Review(ctx, text)
		if err != nil {
			fmt.Fprintf(out, "%s %v\n", errorLabel("Error:"), err)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}
		fmt.Fprintf(out, "\n%s\n%s\n", botLabel("Veredicto:"), verdict)
	}
}

// readText collects lines up to the terminator. quit is set when the first
// line is an exit word or the input ends before any text.
func readText(r *bufio.Reader) (text string, quit bool, err error) {
	var lines []string
	for {
		line, err := r.ReadString('\n')
		trimmed := strings.TrimSpace(line)
		if len(lines) == 0 && isExitWord(trimmed) {
			return "", true, nil
		}
		if trimmed == endOfText {
			return strings.Join(lines, "\n"), false, nil
		}
		if line != "" {
			lines = append(lines, strings.TrimRight(line, "\r\n"))
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return strings.Join(lines, "\n"), len(lines) == 0, nil
			}
			return "", false, err
		}
	}
}

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a single question",
	Long: `Answer one question from the configured corpus. The answer is printed as
it is generated, followed by the consulted sources.

Examples:
  asistente ask "¿Cómo anulo la matrícula?"
  asistente ask --profile normativa "¿Qué dice el artículo 5?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	assistant, idx, err := newAssistant()
	if err != nil {
		return err
	}
	defer idx.Close()

	question := strings.Join(args, " ")
	res, err := assistant.AnswerStream(cmd.Context(), question, nil)
	if err != nil {
		return fmt.Errorf("failed to answer: %w", err)
	}
	defer res.Stream.Close()

	for res.Stream.Next() {
		fmt.Print(res.Stream.Fragment())
	}
	fmt.Println()
	if err := res.Stream.Err(); err != nil {
		return fmt.Errorf("generation interrupted: %w", err)
	}

	printSources(res.Sources)
	return nil
}

func printSources(sources []string) {
	if len(sources) == 0 {
		return
	}
	fmt.Println("\nFuentes consultadas:")
	for _, s := range sources {
		fmt.Printf("  - %s\n", s)
	}
}

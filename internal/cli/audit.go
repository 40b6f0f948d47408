package cli

import (
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/adapter/dataset"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/adapter/report"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/domain"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/usecase"
)

var (
	auditLimit  int
	auditReport string
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Label stored interviews against the editorial rules",
	Long: `Audit interviews from the dataset database against the rules corpus. Each
verdict is stored as a teaching example in the feedback corpus, which the
review command uses as reference. Running it again audits and stores the
same interviews again.

Examples:
  asistente audit --limit 10
  asistente audit --report auditoria.xlsx`,
	RunE: runAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.Flags().IntVarP(&auditLimit, "limit", "n", 0, "number of interviews (default from config)")
	auditCmd.Flags().StringVar(&auditReport, "report", "", "write verdicts to this .xlsx file")
}

func runAudit(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	repo, err := dataset.Open(cfg.Dataset.Driver, cfg.Dataset.DSN)
	if err != nil {
		return err
	}
	defer repo.Close()

	rules, err := openCorpus(cfg.Audit.RulesCorpus)
	if err != nil {
		return err
	}
	defer rules.Close()

	feedback, err := createCorpus(cfg.Audit.FeedbackCorpus, false)
	if err != nil {
		return err
	}
	defer feedback.Close()

	gen, err := newGenerator()
	if err != nil {
		return err
	}

	opts := usecase.AuditOptions{
		Limit:        cfg.Audit.Limit,
		RulesK:       cfg.Audit.RulesK,
		ExcerptChars: cfg.Audit.ExcerptChars,
	}
	if auditLimit > 0 {
		opts.Limit = auditLimit
	}
	if cfg.Audit.RequestsPerMinute > 0 {
		opts.Limiter = rate.NewLimiter(rate.Every(time.Duration(float64(time.Minute)/cfg.Audit.RequestsPerMinute)), 1)
	}

	var bar *progressbar.ProgressBar
	approved, rejected, unknown := 0, 0, 0
	auditUC := usecase.NewAuditUseCase(repo, rules, feedback, gen, opts).
		OnProgress(func(done, total int, result domain.AuditResult) {
			if bar == nil {
				bar = progressbar.NewOptions(total,
					progressbar.OptionEnableColorCodes(true),
					progressbar.OptionSetWidth(40),
					progressbar.OptionShowCount(),
					progressbar.OptionSetDescription("[cyan]Auditing[reset]"),
					progressbar.OptionSetTheme(progressbar.Theme{
						Saucer:        "[green]=[reset]",
						SaucerHead:    "[green]>[reset]",
						SaucerPadding: " ",
						BarStart:      "[",
						BarEnd:        "]",
					}),
					progressbar.OptionOnCompletion(func() {
						fmt.Println()
					}),
				)
			}
			bar.Set(done)
			switch result.Verdict.Status {
			case domain.StatusApproved:
				approved++
			case domain.StatusRejected:
				rejected++
			default:
				unknown++
			}
		})

	start := time.Now()
	results, runErr := auditUC.Run(cmd.Context())

	reportPath := cfg.Audit.Report
	if auditReport != "" {
		reportPath = auditReport
	}
	if reportPath != "" && len(results) > 0 {
		if err := report.WriteAudit(reportPath, results); err != nil {
			return err
		}
		fmt.Printf("Report written to %s\n", reportPath)
	}

	if runErr != nil {
		return fmt.Errorf("audit stopped after %d interviews: %w", len(results), runErr)
	}

	entries, _ := feedback.Count()
	fmt.Printf("\nAudit complete:\n")
	fmt.Printf("  Interviews:  %d\n", len(results))
	fmt.Printf("  Approved:    %d\n", approved)
	fmt.Printf("  Rejected:    %d\n", rejected)
	fmt.Printf("  Unknown:     %d\n", unknown)
	fmt.Printf("  Feedback:    %d entries\n", entries)
	fmt.Printf("  Duration:    %s\n", formatDuration(time.Since(start)))
	return nil
}

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/config"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/logging"
)

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
)

var rootCmd = &cobra.Command{
	Use:   "asistente",
	Short: "Asistente de burocracia de la Universidad de Sevilla",
	Long: `Asistente answers questions about University of Seville procedures and
regulations from indexed official documents, citing the sources it used.
It also audits the interview dataset against editorial rules and reviews
new texts with the audited examples as reference.

Example usage:
  asistente ingest documentos            # Index the regulation PDFs
  asistente ask "¿Cómo anulo la matrícula?"
  asistente chat                         # Interactive conversation
  asistente serve                        # HTTP API on :8080`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		cfg.ApplyEnv()
		applyOverrides(cfg)
		cfg.ResolvePaths(rootDir)
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		return setupLogging(cfg)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Close()
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./asistente.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "base directory for relative paths (default is current directory)")
	rootCmd.PersistentFlags().String("profile", "", "assistant profile: normativa or secretaria")
	rootCmd.PersistentFlags().String("corpus", "", "corpus the assistant answers from")
	rootCmd.PersistentFlags().String("llm-model", "", "generation model")
	rootCmd.PersistentFlags().String("embedding-model", "", "embedding model")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug logging")

	for _, name := range []string{"profile", "corpus", "llm-model", "embedding-model", "verbose"} {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
	viper.SetEnvPrefix("ASISTENTE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// applyOverrides copies flag and ASISTENTE_* environment values over the
// file configuration.
func applyOverrides(c *config.Config) {
	if v := viper.GetString("profile"); v != "" {
		c.Assistant.Profile = v
	}
	if v := viper.GetString("corpus"); v != "" {
		c.Assistant.Corpus = v
	}
	if v := viper.GetString("llm-model"); v != "" {
		c.Generation.Model = v
	}
	if v := viper.GetString("embedding-model"); v != "" {
		c.Embedding.Model = v
	}
	if viper.GetBool("verbose") {
		c.Logging.Level = "debug"
	}
}

func setupLogging(c *config.Config) error {
	logging.SetLevel(logging.ParseLevel(c.Logging.Level))
	if c.Logging.File == "" {
		return nil
	}
	if err := logging.Init(c.Logging.File); err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	return nil
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}

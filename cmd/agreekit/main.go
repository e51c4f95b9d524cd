package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/clearlabel/agreekit/internal/config"
	"github.com/clearlabel/agreekit/internal/database"
	"github.com/clearlabel/agreekit/internal/pipeline"
	"github.com/clearlabel/agreekit/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "agreekit",
	Short:   "Inter-annotator agreement and model evaluation",
	Long:    "Agreekit imports annotation exports, measures inter-annotator agreement with Cohen's and Fleiss' kappa, builds consensus verdicts, and scores the model against them.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(agreementCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("agreekit", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/agreekit/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure categories, label vocabulary, and scoring strategy.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Println("Database:")
		fmt.Printf("  Runs: %d\n", stats.Runs)
		fmt.Printf("  Annotations: %d\n", stats.Annotations)
		fmt.Printf("  Verdicts: %d\n", stats.Verdicts)
		if stats.LastRunID != "" {
			fmt.Println("\nLast run:")
			fmt.Printf("  ID: %s\n", stats.LastRunID)
			fmt.Printf("  Created: %s\n", stats.LastRunAt)
		}
		fmt.Println("\nConfig:")
		fmt.Printf("  Categories: %d\n", len(cfg.Categories))
		fmt.Printf("  Strategy: %s\n", cfg.Consensus.Strategy)
		fmt.Printf("  Data dir: %s\n", cfg.GetDataDir())
		return nil
	},
}

// --- import command ---

var importCmd = &cobra.Command{
	Use:   "import [files...]",
	Short: "Import annotation export files as a new run",
	Long:  "Import one JSON export per annotator. File order determines annotator identity: the first file becomes annotator-1.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		pipe := pipeline.New(cfg, db, os.Stdout)
		runID, err := pipe.Import(args)
		if err != nil {
			return err
		}
		fmt.Printf("Imported run %s\n", runID)
		fmt.Println("Compute agreement with: agreekit agreement")
		return nil
	},
}

// --- agreement command ---

var agreementRunID string

var agreementCmd = &cobra.Command{
	Use:   "agreement",
	Short: "Compute inter-annotator agreement for a run",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		pipe := pipeline.New(cfg, db, os.Stdout)
		run, err := pipe.ResolveRun(agreementRunID)
		if err != nil {
			return err
		}
		return pipe.Agreement(run.ID)
	},
}

// --- evaluate command ---

var evaluateRunID string

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Build consensus verdicts and score the model for a run",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		pipe := pipeline.New(cfg, db, os.Stdout)
		run, err := pipe.ResolveRun(evaluateRunID)
		if err != nil {
			return err
		}
		return pipe.Evaluate(run.ID)
	},
}

func init() {
	agreementCmd.Flags().StringVar(&agreementRunID, "run", "", "Run ID (default: latest)")
	evaluateCmd.Flags().StringVar(&evaluateRunID, "run", "", "Run ID (default: latest)")
}

// --- run command ---

var runCmd = &cobra.Command{
	Use:   "run [files...]",
	Short: "Run the full pipeline: import -> agreement -> consensus -> evaluate",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		pipe := pipeline.New(cfg, db, os.Stdout)
		result := pipe.Run(args)

		failed := false
		for i, step := range result.Steps {
			fmt.Printf("\nStep %d/4: %s\n", i+1, step.Name)
			if step.Err != nil {
				fmt.Printf("  Error: %v\n", step.Err)
				failed = true
			} else {
				fmt.Printf("  %s\n", step.Summary)
			}
		}

		if failed {
			return fmt.Errorf("pipeline finished with errors")
		}
		fmt.Printf("\nPipeline complete! Run 'agreekit serve' to browse run %s.\n", result.RunID)
		return nil
	},
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(db, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (default: from config)")
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "agreekit.db")
	return database.Open(dbPath)
}

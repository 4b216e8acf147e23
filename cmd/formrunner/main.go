// Command formrunner executes discovered form wizards from the command
// line. It mirrors the three operations a transport layer exposes: list
// available wizards, show a wizard's user-data contract, and execute a
// wizard with caller-supplied data.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/entrhq/formrunner/pkg/config"
	"github.com/entrhq/formrunner/pkg/runner"
	"github.com/entrhq/formrunner/pkg/schema"
	"github.com/entrhq/formrunner/pkg/wizard"
)

var (
	configPath string
	wizardsDir string
	dataPath   string
	headless   bool
	browser    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "formrunner",
		Short: "Execute discovered multi-page form wizards",
		Long: `formrunner drives a real browser through a previously discovered
wizard structure, entering caller-supplied values page by page and
returning extracted results plus an audit trail of screenshots.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&wizardsDir, "wizards-dir", "", "Override the wizards directory")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available wizards",
		RunE:  runList,
	}

	infoCmd := &cobra.Command{
		Use:   "info <wizard-id>",
		Short: "Show a wizard's metadata and user-data contract",
		Args:  cobra.ExactArgs(1),
		RunE:  runInfo,
	}

	executeCmd := &cobra.Command{
		Use:   "execute <wizard-id>",
		Short: "Execute a wizard with user data",
		Args:  cobra.ExactArgs(1),
		RunE:  runExecute,
	}
	executeCmd.Flags().StringVar(&dataPath, "data", "", "Path to JSON file of user data (field_id -> value)")
	executeCmd.Flags().BoolVar(&headless, "headless", false, "Run the browser headless")
	executeCmd.Flags().StringVar(&browser, "browser", "", "Browser engine: chromium, firefox, or webkit")
	_ = executeCmd.MarkFlagRequired("data")

	rootCmd.AddCommand(listCmd, infoCmd, executeCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if wizardsDir != "" {
		cfg.WizardsDir = wizardsDir
	}
	return cfg, nil
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store := wizard.NewStore(cfg.WizardsDir)
	summaries, err := store.List()
	if err != nil {
		return err
	}

	return printJSON(map[string]any{
		"success": true,
		"wizards": summaries,
		"count":   len(summaries),
	})
}

func runInfo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store := wizard.NewStore(cfg.WizardsDir)
	w, err := store.Load(args[0])
	if err != nil {
		return err
	}

	schemaJSON, err := store.SchemaJSON(w.WizardID)
	if err != nil {
		return err
	}
	var contract map[string]any
	if err := json.Unmarshal(schemaJSON, &contract); err != nil {
		return fmt.Errorf("invalid schema contract for %s: %w", w.WizardID, err)
	}

	return printJSON(map[string]any{
		"success":     true,
		"wizard_id":   w.WizardID,
		"name":        w.Name,
		"url":         w.URL,
		"total_pages": w.TotalPages,
		"schema":      contract,
	})
}

func runExecute(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if headless {
		cfg.Headless = true
	}
	if browser != "" {
		cfg.BrowserType = browser
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	userData, err := readUserData(dataPath)
	if err != nil {
		return err
	}

	store := wizard.NewStore(cfg.WizardsDir)
	w, err := store.Load(args[0])
	if err != nil {
		return err
	}

	// Contract validation catches bad data before any browser work
	schemaJSON, err := store.SchemaJSON(w.WizardID)
	if err != nil {
		return err
	}
	validation, err := schema.ValidateJSON(schemaJSON, userData)
	if err != nil {
		return err
	}
	if !validation.Valid {
		return printJSON(map[string]any{
			"success":           false,
			"error":             "user data validation failed",
			"validation_errors": validation,
		})
	}

	values := wizard.ResolveValues(w, userData)

	// The engine never self-cancels; the execution budget is enforced
	// here, caller-side, through the context deadline
	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.ExecutionTimeoutSec)*time.Second)
	defer cancel()

	engine := runner.NewEngine(cfg)
	result := engine.Execute(ctx, w, values)

	return printJSON(result)
}

func readUserData(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read user data file: %w", err)
	}
	var userData map[string]any
	if err := json.Unmarshal(data, &userData); err != nil {
		return nil, fmt.Errorf("invalid user data JSON: %w", err)
	}
	return userData, nil
}

func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

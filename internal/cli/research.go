package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tokenlens/tokenlens/internal/research"
)

var (
	symbol      string
	address     string
	siteURL     string
	outJSON     string
	timeout     time.Duration
	noCache     bool
	llmProvider string
	llmModel    string
)

// researchCmd represents the research command
var researchCmd = &cobra.Command{
	Use:   "research <entity>",
	Short: "Research one game, token, or project",
	Long: `Research classifies the entity, plans its critical sources, collects them
concurrently, scores the findings, and runs the quality-gate pipeline.

Example:
  tokenlens research "axie infinity" --symbol AXS
  tokenlens research someproject --address 0xdeadbeef --json report.json
  tokenlens research someproject --llm-provider openai`,
	Args: cobra.ExactArgs(1),
	RunE: runResearch,
}

func init() {
	rootCmd.AddCommand(researchCmd)

	researchCmd.Flags().StringVar(&symbol, "symbol", "", "token or ticker symbol")
	researchCmd.Flags().StringVar(&address, "address", "", "contract address")
	researchCmd.Flags().StringVar(&siteURL, "site", "", "known official website URL")
	researchCmd.Flags().StringVar(&outJSON, "json", "", "write the full result to a JSON file")
	researchCmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "overall research timeout")
	researchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the collection cache")
	researchCmd.Flags().StringVar(&llmProvider, "llm-provider", "", "language-model provider (openai, anthropic, ollama; empty disables)")
	researchCmd.Flags().StringVar(&llmModel, "llm-model", "", "language-model name")
}

func runResearch(cmd *cobra.Command, args []string) error {
	entity := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if llmProvider != "" {
		cfg.LLM.Provider = llmProvider
	}
	if llmModel != "" {
		cfg.LLM.Model = llmModel
	}

	researcher, err := buildResearcher(cfg)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Researching: %s\n", entity)
		fmt.Fprintf(os.Stderr, "Cache: %v\n", cfg.Cache.Enabled)
		fmt.Fprintln(os.Stderr)
	}

	result := researcher.Research(ctx, research.Request{
		Entity:  entity,
		Symbol:  symbol,
		Address: address,
		SiteURL: siteURL,
	})

	research.Render(os.Stdout, result, verbose)

	if outJSON != "" {
		if err := research.WriteJSON(outJSON, result); err != nil {
			return err
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Report written: %s\n", outJSON)
		}
	}

	if !result.Success {
		os.Exit(1)
	}
	return nil
}

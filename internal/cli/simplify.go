package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/klartext/klartext/internal/pipeline"
)

var (
	targetLang      string
	level           string
	llmProvider     string
	llmModel        string
	simplifyTimeout time.Duration
	noCache         bool
)

// simplifyCmd represents the simplify command
var simplifyCmd = &cobra.Command{
	Use:   "simplify [file]",
	Short: "Simplify a text file or stdin into plain language",
	Long: `Simplify rewrites the given text into plain language. The input is read
from the file argument, or from stdin when no file is given. The simplified
text goes to stdout; scores and warnings go to stderr.

Example:
  klartext simplify letter.txt --lang de --level very_easy
  cat notice.txt | klartext simplify --lang en --level easy
  klartext simplify letter.txt --provider groq`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSimplify,
}

func init() {
	rootCmd.AddCommand(simplifyCmd)

	simplifyCmd.Flags().StringVar(&targetLang, "lang", "de", "target language (de, en)")
	simplifyCmd.Flags().StringVar(&level, "level", "easy", "simplification level (very_easy, easy, medium)")
	simplifyCmd.Flags().StringVar(&llmProvider, "provider", "", "LLM provider (openai, groq, ollama)")
	simplifyCmd.Flags().StringVar(&llmModel, "model", "", "LLM model name")
	simplifyCmd.Flags().DurationVar(&simplifyTimeout, "timeout", 5*time.Minute, "overall timeout")
	simplifyCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the chunk result cache")
}

func runSimplify(cmd *cobra.Command, args []string) error {
	text, err := readInput(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if llmProvider != "" {
		cfg.LLM.Provider = llmProvider
		cfg.LLM.Model = llmModel
		cfg.LLM.APIKey = ""
	}
	if llmModel != "" {
		cfg.LLM.Model = llmModel
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if cfg.LLM.APIKey == "" {
		switch cfg.LLM.Provider {
		case "openai":
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		case "groq":
			cfg.LLM.APIKey = os.Getenv("GROQ_API_KEY")
		}
	}

	p, err := pipeline.NewPipeline(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), simplifyTimeout)
	defer cancel()

	resp, err := p.Simplify(ctx, pipeline.Request{
		Text:       text,
		TargetLang: targetLang,
		Level:      level,
	})
	if err != nil {
		return fmt.Errorf("simplify: %w", err)
	}

	fmt.Println(resp.Output)

	if verbose {
		fmt.Fprintf(os.Stderr, "\nrun:        %s\n", resp.RunID)
		fmt.Fprintf(os.Stderr, "model:      %s\n", resp.ModelUsed)
		fmt.Fprintf(os.Stderr, "chunks:     %d\n", resp.ChunkCount)
		fmt.Fprintf(os.Stderr, "latency:    %dms\n", resp.LatencyMS)
		fmt.Fprintf(os.Stderr, "lix:        %.1f\n", resp.Scores.LIX)
		fmt.Fprintf(os.Stderr, "avg words:  %.1f per sentence\n", resp.Scores.AvgSentenceLen)
		fmt.Fprintf(os.Stderr, "passes:     %v\n", resp.Scores.Passes)
	}
	for _, w := range resp.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	if resp.NeedsReview {
		fmt.Fprintln(os.Stderr, "some chunks kept guardrail violations after all attempts; review the output")
	}

	return nil
}

func readInput(args []string) (string, error) {
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("read input file: %w", err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

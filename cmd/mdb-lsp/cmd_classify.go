package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/woxQAQ/mongodb-playground-lsp/internal/analyzer"
	"github.com/woxQAQ/mongodb-playground-lsp/internal/completion"
	"github.com/woxQAQ/mongodb-playground-lsp/pkg/protocol"
)

var (
	classifyFile      string
	classifyLine      int
	classifyCharacter int
	classifyItems     bool

	classifyCmd = &cobra.Command{
		Use:   "classify",
		Short: "Print the completion context at a position of a playground file",
		Long: `Classify parses a playground file and prints, as JSON, the completion
context at --line and --character (both zero-based, character in UTF-16
code units). With --items the catalog completions for that context are
printed as well. No database is contacted.`,
		RunE: runClassify,
	}
)

func init() {
	classifyCmd.Flags().StringVar(&classifyFile, "file", "", "Playground file to classify")
	classifyCmd.Flags().IntVar(&classifyLine, "line", 0, "Zero-based line of the cursor")
	classifyCmd.Flags().IntVar(&classifyCharacter, "character", 0, "Zero-based character of the cursor")
	classifyCmd.Flags().BoolVar(&classifyItems, "items", false, "Also print catalog completion items")
	classifyCmd.MarkFlagRequired("file")
}

type classifyOutput struct {
	State analyzer.CompletionState  `json:"state"`
	Items []protocol.CompletionItem `json:"items,omitempty"`
}

func runClassify(cmd *cobra.Command, args []string) error {
	text, err := os.ReadFile(classifyFile)
	if err != nil {
		return err
	}

	pos := protocol.Position{Line: classifyLine, Character: classifyCharacter}
	out := classifyOutput{State: analyzer.Classify(string(text), pos)}

	if classifyItems {
		catalog, err := completion.DefaultCatalog()
		if err != nil {
			return err
		}
		engine := completion.NewEngine(catalog, nil, zap.NewNop())
		out.Items, err = engine.CompleteState(cmd.Context(), out.State)
		if err != nil {
			return err
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

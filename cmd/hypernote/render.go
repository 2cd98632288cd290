package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	hypernote "github.com/futurepaul/hypernote-pages"
	"github.com/futurepaul/hypernote-pages/internal/logging"
	"github.com/futurepaul/hypernote-pages/internal/presentation/tui"
	"github.com/futurepaul/hypernote-pages/pkg/adapters/memory"
	"github.com/spf13/cobra"
)

var renderCmd = &cobra.Command{
	Use:   "render <document.json>",
	Short: "Render a document to the terminal",
	Long: `Render evaluates a parsed document (AST JSON) and previews the result
as styled markdown. Query data can be seeded from a JSON file with --data.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		logger := logging.New(level)

		docData, err := os.ReadFile(args[0])
		if err != nil {
			fmt.Printf("Failed to read document: %v\n", err)
			os.Exit(1)
		}

		queries := memory.NewQuerySource()
		if dataFile, _ := cmd.Flags().GetString("data"); dataFile != "" {
			if err := seedQueries(queries, dataFile); err != nil {
				fmt.Printf("Failed to load data: %v\n", err)
				os.Exit(1)
			}
		}

		opts := []hypernote.Option{
			hypernote.WithLogger(logger),
			hypernote.WithQuerySource(queries),
			hypernote.WithRecordSource(queries),
		}
		if pubkey, _ := cmd.Flags().GetString("pubkey"); pubkey != "" {
			opts = append(opts, hypernote.WithSigner(memory.NewSigner(pubkey)))
			opts = append(opts, hypernote.WithPublisher(memory.NewPublisher()))
		}

		eng, err := hypernote.Load(docData, opts...)
		if err != nil {
			fmt.Printf("Failed to load document: %v\n", err)
			os.Exit(1)
		}

		tree := eng.Render(cmd.Context())
		render := tui.NewRenderer()
		out, err := render(tree)
		if err != nil {
			// Fall back to the raw markdown if styling fails.
			out = tui.Flatten(tree)
		}
		fmt.Print(out)
	},
}

// seedQueries loads {"query name": value} JSON into the source.
func seedQueries(queries *memory.QuerySource, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var values map[string]any
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	for name, v := range values {
		queries.Set(name, v)
	}
	return nil
}

func init() {
	renderCmd.Flags().String("data", "", "JSON file with query results to seed")
	renderCmd.Flags().String("pubkey", "", "Identity to render as")
	rootCmd.AddCommand(renderCmd)
}

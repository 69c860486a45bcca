package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/IvndxDB/upc-backend/internal/pipeline"
)

var (
	lookupURL   string
	lookupQuery string
	lookupUPC   string
	lookupNoAI  bool
)

var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Run a single price lookup and print the result as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		p := buildPipeline(cfg)

		res, err := p.Lookup(cmd.Context(), pipeline.Request{
			URL:   lookupURL,
			Query: lookupQuery,
			UPC:   lookupUPC,
			UseAI: !lookupNoAI,
		})
		if err != nil {
			return eris.Wrap(err, "lookup")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

func init() {
	lookupCmd.Flags().StringVar(&lookupURL, "url", "", "product page URL")
	lookupCmd.Flags().StringVar(&lookupQuery, "query", "", "product name query")
	lookupCmd.Flags().StringVar(&lookupUPC, "upc", "", "scanned barcode digits")
	lookupCmd.Flags().BoolVar(&lookupNoAI, "no-ai", false, "skip AI enhancement")
	rootCmd.AddCommand(lookupCmd)
}

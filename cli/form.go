package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"heartrisk/dataset"
)

var formCmd = &cobra.Command{
	Use:   "form",
	Short: "Print the options offered for every form field",
	RunE: func(cmd *cobra.Command, args []string) error {
		reference, err := dataset.NewLoader(cfg.Data.ReferencePath, logger).Load()
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(dataset.BuildChoices(reference))
	},
}

func init() {
	rootCmd.AddCommand(formCmd)
}

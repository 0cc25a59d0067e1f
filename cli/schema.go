package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"heartrisk/dataset"
	"heartrisk/ml"
)

var (
	schemaOut  string
	schemaPath string
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Build, show or check the feature schema",
}

var schemaBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Derive the feature schema from the reference dataset and write it",
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := liveSchema()
		if err != nil {
			return err
		}
		out := schemaOut
		if out == "" {
			out = cfg.ML.SchemaPath
		}
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return err
		}
		if err := schema.SaveSchema(out); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote schema %s (%d columns) to %s\n", schema.Version, len(schema.Columns), out)
		return nil
	},
}

var schemaShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the bundled feature schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := ml.LoadSchema(bundledSchemaPath())
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(schema)
	},
}

var schemaCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Compare the bundled schema with the reference dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		bundled, err := ml.LoadSchema(bundledSchemaPath())
		if err != nil {
			return err
		}
		live, err := liveSchema()
		if err != nil {
			return err
		}
		if !bundled.Equal(live) {
			return fmt.Errorf("%w: %s", ml.ErrSchemaMismatch, bundled.Diff(live))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "schema %s matches the reference dataset\n", bundled.Version)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
	schemaCmd.AddCommand(schemaBuildCmd, schemaShowCmd, schemaCheckCmd)

	schemaBuildCmd.Flags().StringVarP(&schemaOut, "out", "o", "", "output path (default ml.schema_path)")
	schemaCmd.PersistentFlags().StringVar(&schemaPath, "path", "", "bundled schema path (default ml.schema_path)")
}

func bundledSchemaPath() string {
	if schemaPath != "" {
		return schemaPath
	}
	return cfg.ML.SchemaPath
}

func liveSchema() (*ml.FeatureSchema, error) {
	reference, err := dataset.NewLoader(cfg.Data.ReferencePath, logger).Load()
	if err != nil {
		return nil, err
	}
	return ml.BuildSchema(reference)
}

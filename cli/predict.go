package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"heartrisk/dataset"
	"heartrisk/service"
)

var (
	predictInput string
	predictJSON  bool
	predictLang  string
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Score one submission read from a JSON file",
	Long: `Read a form submission as JSON (field names as in the form, missing
fields take their defaults) and print the estimated risk of heart disease.

Examples:
  heartrisk predict --input answers.json
  echo '{"Smoking":"Yes","SleepTime":6}' | heartrisk predict --input - --json`,
	RunE: runPredict,
}

func init() {
	rootCmd.AddCommand(predictCmd)
	predictCmd.Flags().StringVarP(&predictInput, "input", "i", "-", "submission JSON file, - for stdin")
	predictCmd.Flags().BoolVar(&predictJSON, "json", false, "print the full prediction as JSON")
	predictCmd.Flags().StringVar(&predictLang, "lang", "en", "language tag used to format numbers")
}

func runPredict(cmd *cobra.Command, args []string) error {
	in, err := readFormInput(cmd.InOrStdin(), predictInput)
	if err != nil {
		return err
	}

	svc, err := service.New(cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	prediction, err := svc.Predict(cmd.Context(), in)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if predictJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(prediction)
	}
	tag, err := language.Parse(predictLang)
	if err != nil {
		return fmt.Errorf("--lang: %w", err)
	}
	writePrediction(out, prediction, tag)
	return nil
}

func readFormInput(stdin io.Reader, path string) (dataset.FormInput, error) {
	var in dataset.FormInput
	r := stdin
	if path != "-" {
		file, err := os.Open(path)
		if err != nil {
			return in, err
		}
		defer file.Close()
		r = file
	}
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&in); err != nil {
		return in, fmt.Errorf("decode submission: %w", err)
	}
	return in, nil
}

func writePrediction(w io.Writer, p *service.Prediction, tag language.Tag) {
	printer := message.NewPrinter(tag)
	printer.Fprintf(w, "Risk of heart disease: %.2f%%\n", p.Percent)
	printer.Fprintf(w, "Colour: %s\n", p.Color)
	printer.Fprintf(w, "Schema: %s\n", p.SchemaVersion)
}

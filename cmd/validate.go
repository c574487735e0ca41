package main

import (
	"encoding/json"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/internal/normalize"
	"github.com/sells-group/lead-cli/internal/rules"
	"github.com/sells-group/lead-cli/internal/validate"
)

var validateCmd = &cobra.Command{
	Use:   "validate <value>...",
	Short: "Normalize and validate phone numbers or email addresses",
	Long:  "Values containing @ are checked as email addresses, everything else as phone numbers. Text with several contacts (a bio, say) is scanned for candidates first.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("validate"); err != nil {
			return err
		}
		r, err := rules.Load(cfg.Enrich.RulesPath)
		if err != nil {
			return err
		}
		return writeVerdicts(os.Stdout, checkValues(validate.New(r), args))
	},
}

// verdict is the outcome for one candidate found in an argument.
type verdict struct {
	Input string     `json:"input"`
	Kind  model.Kind `json:"kind"`
	Value string     `json:"value"`
	Valid bool       `json:"valid"`
}

// checkValues scans each argument for email or phone candidates and
// validates them. An argument with no candidate is reported as invalid.
func checkValues(v *validate.Validator, args []string) []verdict {
	var out []verdict
	for _, arg := range args {
		kind := model.KindPhone
		cands := slices.Collect(normalize.Phones(arg, ""))
		if strings.Contains(arg, "@") {
			kind = model.KindEmail
			cands = slices.Collect(normalize.Emails(arg, ""))
		}
		if len(cands) == 0 {
			out = append(out, verdict{Input: arg, Kind: kind, Value: strings.TrimSpace(arg)})
			continue
		}
		for _, c := range cands {
			out = append(out, verdict{Input: arg, Kind: c.Kind, Value: c.Value, Valid: v.Accept(c)})
		}
	}
	return out
}

func writeVerdicts(w io.Writer, verdicts []verdict) error {
	enc := json.NewEncoder(w)
	for _, v := range verdicts {
		if err := enc.Encode(v); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

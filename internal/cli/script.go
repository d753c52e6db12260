package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/koscakluka/ema-heartcheck/core/questions"
)

var scriptCmd = &cobra.Command{
	Use:   "script",
	Short: "Inspect and validate question scripts",
}

var scriptValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check that a script file is a valid questionnaire",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		script, err := questions.LoadFile(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d questions, fields %v\n", args[0], script.Len(), script.Fields())
		return nil
	},
}

var scriptSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of script files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := questions.SchemaJSON()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var scriptShowCmd = &cobra.Command{
	Use:   "show [file]",
	Short: "Print a script as YAML, the built-in script by default",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		script := questions.HeartAssessment()
		if len(args) == 1 {
			loaded, err := questions.LoadFile(args[0])
			if err != nil {
				return err
			}
			script = loaded
		}

		data, err := yaml.Marshal(script)
		if err != nil {
			return fmt.Errorf("marshalling script: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	scriptCmd.AddCommand(scriptValidateCmd)
	scriptCmd.AddCommand(scriptSchemaCmd)
	scriptCmd.AddCommand(scriptShowCmd)
}

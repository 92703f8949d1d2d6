package main

import (
	"fmt"

	"github.com/spf13/cobra"

	contracts "github.com/goliatone/go-contracts"
)

type lintOutput struct {
	Schema   string              `json:"schema"`
	Engine   string              `json:"engine,omitempty"`
	Warnings []contracts.Warning `json:"warnings"`
}

func (a *app) lintCmd() *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "lint <file>",
		Short: "Run structural checks and lint rules",
		Long: `Lint runs the structural checks for the document's schema and, when a
rules file is given, every lint rule. Findings are printed one per line.
With --strict the command fails when any finding is reported.`,
		Example: `  contractctl lint layout.json
  contractctl lint --rules rules.yaml --engine cel layout.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			schema := detectSchema(doc)
			warnings := contracts.ValidateAs(doc, schema)

			linter, err := a.linter(cmd)
			if err != nil {
				return err
			}
			out := lintOutput{Schema: schema}
			if linter != nil {
				out.Engine = linter.Engine()
				lintWarnings, err := linter.Lint(cmd.Context(), doc)
				if err != nil {
					return err
				}
				warnings = append(warnings, lintWarnings...)
			}
			out.Warnings = warnings
			if out.Warnings == nil {
				out.Warnings = []contracts.Warning{}
			}

			if a.cfg.JSON.Or(false) {
				if err := writeJSON(cmd, out); err != nil {
					return err
				}
			} else {
				for _, warning := range warnings {
					fmt.Fprintln(cmd.OutOrStdout(), warning.String())
				}
			}
			if strict && len(warnings) > 0 {
				return fmt.Errorf("%d finding(s)", len(warnings))
			}
			return nil
		},
	}
	cmd.Flags().String("rules", "", "lint rules file (YAML or JSON)")
	cmd.Flags().String("engine", "", "lint engine: expr, cel or js")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail when any finding is reported")
	return cmd
}

func (a *app) normalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize <file>",
		Short: "Align registry component names with their keys",
		Long: `Normalize sets components.<key>.name to <key> for every registry
component. Running it twice changes nothing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd, contracts.Normalize(doc))
		},
	}
}

func (a *app) migrateCmd() *cobra.Command {
	var from, schema string
	cmd := &cobra.Command{
		Use:   "migrate <file>",
		Short: "Upgrade a document to the current schema version",
		Long: `Migrate applies the registered upgrade steps starting at --from (default:
the document's version, or 1.0.0 when it has none) and prints the result.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			if schema == "" {
				schema = detectSchema(doc)
			}
			if from == "" {
				from, _ = doc[contracts.MetaKeyVersion].(string)
			}
			upgraded, reached, err := contracts.Migrate(doc, schema, from)
			if err != nil {
				return err
			}
			a.logger.Info("document migrated", "schema", schema, "from", from, "to", reached)
			if _, tagged := upgraded[contracts.MetaKeyVersion]; tagged {
				upgraded[contracts.MetaKeyVersion] = reached
			}
			return writeJSON(cmd, upgraded)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "version the document is at")
	cmd.Flags().StringVar(&schema, "schema", "", "schema name (default: detected from the document)")
	return cmd
}

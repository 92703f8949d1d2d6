package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	contracts "github.com/goliatone/go-contracts"
)

func (a *app) exportCmd() *cobra.Command {
	var schema, docVersion, output string
	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Wrap a document in a versioned envelope",
		Long: `Export validates the document, runs lint rules when configured and wraps
it with schema, version, hash and generatedAt. Warnings go to stderr and
never stop the export.`,
		Example: `  contractctl export layout.json -o layout.envelope.json
  contractctl export --schema ui-registry-contract registry.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			if schema == "" {
				schema = detectSchema(doc)
			}
			if docVersion == "" {
				docVersion = currentVersion(schema)
			}
			linter, err := a.linter(cmd)
			if err != nil {
				return err
			}

			env, warnings, err := a.exchange(linter).Export(cmd.Context(), doc, schema, docVersion)
			a.reportWarnings(cmd, warnings)
			if err != nil {
				return err
			}
			data, err := contracts.MarshalEnvelope(env)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			a.logger.Info("envelope written", "file", output, "hash", env[contracts.MetaKeyHash])
			return nil
		},
	}
	cmd.Flags().StringVar(&schema, "schema", "", "schema name (default: detected from the document)")
	cmd.Flags().StringVar(&docVersion, "version", "", "semantic version (default: current version of the schema)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the envelope to a file instead of stdout")
	cmd.Flags().String("algorithm", "", "digest algorithm: sha256 or blake3")
	cmd.Flags().String("rules", "", "lint rules file")
	cmd.Flags().String("engine", "", "lint engine: expr, cel or js")
	return cmd
}

type importOutput struct {
	Meta     contracts.Meta      `json:"meta"`
	Document contracts.Document  `json:"document"`
	Warnings []contracts.Warning `json:"warnings,omitempty"`
}

func (a *app) importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Unwrap an envelope and print the upgraded document",
		Long: `Import checks the schema tag, optionally verifies the recorded hash,
migrates the document to the current version and prints it. With --json
the envelope meta and warnings are included in the output.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			linter, err := a.linter(cmd)
			if err != nil {
				return err
			}
			doc, meta, warnings, err := a.exchange(linter).Import(cmd.Context(), data)
			if err != nil {
				return err
			}
			if a.cfg.JSON.Or(false) {
				return writeJSON(cmd, importOutput{Meta: meta, Document: doc, Warnings: warnings})
			}
			a.reportWarnings(cmd, warnings)
			return writeJSON(cmd, doc)
		},
	}
	cmd.Flags().Bool("verify-hash", false, "reject envelopes whose hash does not match the document")
	cmd.Flags().String("rules", "", "lint rules file")
	cmd.Flags().String("engine", "", "lint engine: expr, cel or js")
	return cmd
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) archiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Save and load contracts in the git archive",
		Long: `Archive commands commit envelopes to a git repository (archive.dir), one
<schema>.json file per schema.`,
	}
	cmd.AddCommand(a.archiveSaveCmd(), a.archiveLoadCmd(), a.archiveHistoryCmd())
	return cmd
}

func (a *app) archiveSaveCmd() *cobra.Command {
	var schema, docVersion string
	cmd := &cobra.Command{
		Use:   "save <file>",
		Short: "Commit a document or envelope to the archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			env, err := a.asEnvelope(doc, schema, docVersion)
			if err != nil {
				return err
			}
			archive, err := a.openArchive()
			if err != nil {
				return err
			}
			res, err := archive.SaveContract(cmd.Context(), env)
			if err != nil {
				return err
			}
			if a.cfg.JSON.Or(false) {
				return writeJSON(cmd, res)
			}
			return a.writeValue(cmd, res.Commit)
		},
	}
	cmd.Flags().StringVar(&schema, "schema", "", "schema used to wrap plain documents")
	cmd.Flags().StringVar(&docVersion, "version", "", "version used to wrap plain documents")
	cmd.Flags().String("algorithm", "", "digest algorithm used to wrap plain documents")
	return cmd
}

func (a *app) archiveLoadCmd() *cobra.Command {
	var schema, revision string
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Print archived envelopes",
		Long: `Load prints every archived envelope keyed by schema. With --schema only
that envelope is printed; --rev selects an earlier commit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, err := a.openArchive()
			if err != nil {
				return err
			}
			if revision != "" {
				if schema == "" {
					return fmt.Errorf("--rev needs --schema")
				}
				env, err := archive.LoadRevision(cmd.Context(), revision, schema)
				if err != nil {
					return err
				}
				return writeJSON(cmd, env)
			}

			envelopes, err := archive.LoadContracts(cmd.Context())
			if err != nil {
				return err
			}
			if envelopes == nil {
				return fmt.Errorf("archive %s is empty", archive.Dir())
			}
			if schema == "" {
				return writeJSON(cmd, envelopes)
			}
			env, ok := envelopes[schema]
			if !ok {
				return fmt.Errorf("%s is not archived", schema)
			}
			return writeJSON(cmd, env)
		},
	}
	cmd.Flags().StringVar(&schema, "schema", "", "schema to print")
	cmd.Flags().StringVar(&revision, "rev", "", "commit, branch or tag to read from")
	return cmd
}

func (a *app) archiveHistoryCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history <schema>",
		Short: "List archive commits for a schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, err := a.openArchive()
			if err != nil {
				return err
			}
			commits, err := archive.History(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			if a.cfg.JSON.Or(false) {
				return writeJSON(cmd, commits)
			}
			for _, c := range commits {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s\n", c.Hash[:12], c.When.UTC().Format("2006-01-02 15:04"), firstLine(c.Message))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of commits (0 for all)")
	return cmd
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}

package main

import (
	"github.com/spf13/cobra"

	contracts "github.com/goliatone/go-contracts"
)

func (a *app) draftCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Read and write drafts in the configured store",
		Long: `Draft commands keep work-in-progress envelopes in the configured store
(store.backend: memory, sqlite or redis).`,
	}
	cmd.AddCommand(a.draftGetCmd(), a.draftSetCmd())
	return cmd
}

func (a *app) draftGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print the draft stored under key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			drafts, closeFn, err := a.openDrafts()
			defer closeFn()
			if err != nil {
				return err
			}
			env, err := drafts.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd, env)
		},
	}
}

func (a *app) draftSetCmd() *cobra.Command {
	var expectHash, schema, docVersion string
	cmd := &cobra.Command{
		Use:   "set <key> <file>",
		Short: "Store a document or envelope as a draft",
		Long: `Set stores the file under key. Plain documents are wrapped first. With
--expect-hash the write is refused when the stored draft has another hash.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(cmd, args[1])
			if err != nil {
				return err
			}
			env, err := a.asEnvelope(doc, schema, docVersion)
			if err != nil {
				return err
			}
			drafts, closeFn, err := a.openDrafts()
			defer closeFn()
			if err != nil {
				return err
			}
			if err := drafts.Save(cmd.Context(), args[0], env, expectHash); err != nil {
				return err
			}
			return a.writeValue(cmd, env[contracts.MetaKeyHash])
		},
	}
	cmd.Flags().StringVar(&expectHash, "expect-hash", "", "hash the stored draft must have")
	cmd.Flags().StringVar(&schema, "schema", "", "schema used to wrap plain documents")
	cmd.Flags().StringVar(&docVersion, "version", "", "version used to wrap plain documents")
	cmd.Flags().String("algorithm", "", "digest algorithm used to wrap plain documents")
	return cmd
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	contracts "github.com/goliatone/go-contracts"
)

func (a *app) canonicalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "canonicalize <file>",
		Short: "Print the canonical serialization of a document",
		Long: `Canonicalize prints the document with object keys sorted at every depth
and no insignificant whitespace. Equal documents print identical bytes.
Use "-" to read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			canonical, err := contracts.Canonicalize(doc)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), canonical)
			return err
		},
	}
}

func (a *app) hashCmd() *cobra.Command {
	var verify string
	cmd := &cobra.Command{
		Use:   "hash <file>",
		Short: "Print the content digest of a document",
		Long: `Hash prints "<algorithm>:<hex>" over the canonical serialization.
With --verify the command fails unless the document matches the digest.`,
		Example: `  contractctl hash layout.json
  contractctl hash --algorithm blake3 layout.json
  contractctl hash --verify sha256:ab12... layout.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			if verify != "" {
				ok, err := contracts.VerifyDigest(doc, verify)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("%w: %s does not match %s", contracts.ErrHashMismatch, args[0], verify)
				}
				return a.writeValue(cmd, "ok")
			}
			digest, err := contracts.NewHasher(a.hashAlgorithm()).Digest(doc)
			if err != nil {
				return err
			}
			return a.writeValue(cmd, digest)
		},
	}
	cmd.Flags().String("algorithm", "", "digest algorithm: sha256 or blake3")
	cmd.Flags().StringVar(&verify, "verify", "", "digest to check the document against")
	return cmd
}

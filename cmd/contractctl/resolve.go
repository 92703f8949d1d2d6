package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	contracts "github.com/goliatone/go-contracts"
)

func decodeLayout(cmd *cobra.Command, path string) (contracts.LayoutContract, contracts.Document, error) {
	doc, err := readDocument(cmd, path)
	if err != nil {
		return contracts.LayoutContract{}, nil, err
	}
	contract, err := contracts.DecodeLayoutContract(doc)
	if err != nil {
		return contracts.LayoutContract{}, nil, fmt.Errorf("%s: %w", path, err)
	}
	return contract, doc, nil
}

func pageOverride(contract contracts.LayoutContract, pageID string) (contracts.LayoutOverride, error) {
	if pageID == "" {
		return contracts.LayoutOverride{}, nil
	}
	page, ok := contract.Pages[pageID]
	if !ok {
		return contracts.LayoutOverride{}, fmt.Errorf("unknown page %q (pages: %s)", pageID, strings.Join(pageIDs(contract), ", "))
	}
	return page.Overrides, nil
}

func pageIDs(contract contracts.LayoutContract) []string {
	ids := make([]string, 0, len(contract.Pages))
	for id := range contract.Pages {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (a *app) resolveCmd() *cobra.Command {
	var pageID, region string
	cmd := &cobra.Command{
		Use:   "resolve <file>",
		Short: "Print the effective layout of a page",
		Long: `Resolve applies a page's overrides to the base layout. Without --page the
base layout is printed. With --region only that region is printed, with its
dimension and padding token references resolved.`,
		Example: `  contractctl resolve layout.json --page dashboard
  contractctl resolve layout.json --page dashboard --region sidebar`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contract, _, err := decodeLayout(cmd, args[0])
			if err != nil {
				return err
			}
			override, err := pageOverride(contract, pageID)
			if err != nil {
				return err
			}
			if region == "" {
				return writeJSON(cmd, contracts.EffectiveDocument(contract.Layout, override))
			}
			effective, ok := contracts.LookupEffectiveRegion(contract.Layout, override, region)
			if !ok {
				return fmt.Errorf("region %q not found", region)
			}
			return writeJSON(cmd, contracts.ResolveRegion(effective, contract.Tokens))
		},
	}
	cmd.Flags().StringVar(&pageID, "page", "", "page id")
	cmd.Flags().StringVar(&region, "region", "", "region name")
	return cmd
}

func (a *app) traceCmd() *cobra.Command {
	var pageID string
	cmd := &cobra.Command{
		Use:   "trace <file> [path]",
		Short: "Show which layer supplies a layout path on a page",
		Long: `Trace reports the page and base values of a dotted path such as
regions.sidebar.behavior.collapsible. Without a path it lists every path the
page overrides.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if pageID == "" {
				return fmt.Errorf("--page is required")
			}
			contract, _, err := decodeLayout(cmd, args[0])
			if err != nil {
				return err
			}
			override, err := pageOverride(contract, pageID)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				return a.writeLines(cmd, contracts.OverriddenPaths(override))
			}
			trace := contracts.TraceOverride(contract.Layout, pageID, override, args[1])
			return writeJSON(cmd, trace)
		},
	}
	cmd.Flags().StringVar(&pageID, "page", "", "page id")
	return cmd
}

func (a *app) writeLines(cmd *cobra.Command, lines []string) error {
	if a.cfg.JSON.Or(false) {
		if lines == nil {
			lines = []string{}
		}
		return writeJSON(cmd, lines)
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) tokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token <file> <reference>",
		Short: "Resolve a token reference",
		Long: `Token resolves a reference such as $tokens.spacing.md against the
document's token table. Font family tokens print their font stack.`,
		Example: `  contractctl token layout.json '$tokens.spacing.md'`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			ref := args[1]
			if !strings.HasPrefix(ref, contracts.TokenPrefix) {
				ref = contracts.TokenPrefix + ref
			}
			table := contracts.TokensFromDocument(doc)
			record, ok := table.Lookup(ref)
			if !ok {
				return fmt.Errorf("token %s not found", ref)
			}
			if record.IsFamily() {
				return a.writeValue(cmd, contracts.FontStack(record))
			}
			value, ok := contracts.ResolveScalar(ref, table)
			if !ok {
				return fmt.Errorf("token %s has no value", ref)
			}
			return a.writeValue(cmd, value)
		},
	}
}

func (a *app) styleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "style <file> <name>",
		Short: "Resolve a text style against the token table",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			contract, _, err := decodeLayout(cmd, args[0])
			if err != nil {
				return err
			}
			style, ok := contract.Styles[args[1]]
			if !ok {
				return fmt.Errorf("text style %q not found", args[1])
			}
			return writeJSON(cmd, contracts.ResolveComposite(style, contract.Tokens))
		},
	}
}

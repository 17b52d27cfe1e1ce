package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"creditgate/internal/access/policy"
)

type policyOutput struct {
	File     string            `json:"file"`
	Version  string            `json:"version"`
	Purposes map[string]string `json:"purposes"`
}

func newPolicyCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Inspect purpose policy files",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "validate <file>",
		Short: "Check that a policy file loads and only names known purposes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := policy.Load(args[0])
			if err != nil {
				return err
			}

			out := policyOutput{File: args[0], Version: t.Version(), Purposes: map[string]string{}}
			for _, p := range t.Purposes() {
				out.Purposes[p] = policy.CapabilityFor(p)
			}
			if root.json {
				return writeJSON(cmd.OutOrStdout(), out)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s: ok (version %s)\n", out.File, out.Version)
			for _, p := range t.Purposes() {
				fmt.Fprintf(w, "  %-20s requires %s\n", p, out.Purposes[p])
			}
			return nil
		},
	})
	return cmd
}

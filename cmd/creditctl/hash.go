package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"creditgate/internal/platform/privacy"
)

func newHashCmd(root *rootOptions) *cobra.Command {
	var pepper string

	cmd := &cobra.Command{
		Use:   "hash [identifier]",
		Short: "Print the stored hash of a consumer identifier",
		Long: `Print the keyed hash under which audit records store a consumer
identifier. Read the identifier from stdin when no argument is given, which
keeps it out of shell history.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readIdentifier(cmd, args)
			if err != nil {
				return err
			}
			h, err := privacy.NewHasher(pepper)
			if err != nil {
				return err
			}
			hashed := h.Hash(raw)

			if root.json {
				return writeJSON(cmd.OutOrStdout(), map[string]string{"consumer_hash": hashed})
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hashed)
			return err
		},
	}
	cmd.Flags().StringVar(&pepper, "pepper", envOr("CONSUMER_ID_PEPPER", ""), "hasher pepper; must match the server's CONSUMER_ID_PEPPER")
	return cmd
}

func readIdentifier(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		if err != nil {
			return "", fmt.Errorf("read identifier: %w", err)
		}
		return "", errors.New("identifier is empty")
	}
	return line, nil
}

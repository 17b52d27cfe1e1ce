package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"creditgate/internal/access/policy"
	jwttoken "creditgate/internal/jwt_token"
	"creditgate/internal/platform/config"
	"creditgate/pkg/domain"
)

type tokenOutput struct {
	Token        string    `json:"token"`
	Subject      string    `json:"subject"`
	Capabilities []string  `json:"capabilities"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func newTokenCmd(root *rootOptions) *cobra.Command {
	var (
		actor        string
		capabilities []string
		purposes     []string
		ttl          time.Duration
		signingKey   string
		issuer       string
		audience     string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for an actor",
		Long: `Mint an HS256 bearer token carrying capabilities. Without --signing-key
the JWT_SIGNING_KEY environment variable is used, falling back to the
development key that production refuses to start with.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, p := range purposes {
				capabilities = append(capabilities, policy.CapabilityFor(p))
			}

			svc := jwttoken.NewJWTService(signingKey, issuer, audience, ttl)
			token, err := svc.Issue(context.Background(), domain.ActorID(actor), capabilities)
			if err != nil {
				return fmt.Errorf("issue token: %w", err)
			}

			if root.json {
				return writeJSON(cmd.OutOrStdout(), tokenOutput{
					Token:        token,
					Subject:      actor,
					Capabilities: capabilities,
					ExpiresAt:    time.Now().Add(ttl).UTC().Truncate(time.Second),
				})
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().StringVar(&actor, "actor", "", "actor ID placed in the sub claim")
	cmd.Flags().StringSliceVar(&capabilities, "capability", nil, "capability to grant (repeatable)")
	cmd.Flags().StringSliceVar(&purposes, "purpose", nil, "grant the capability for a permissible purpose (repeatable)")
	cmd.Flags().DurationVar(&ttl, "ttl", 15*time.Minute, "token lifetime")
	cmd.Flags().StringVar(&signingKey, "signing-key", envOr("JWT_SIGNING_KEY", config.DevJWTSigningKey), "HS256 signing key")
	cmd.Flags().StringVar(&issuer, "issuer", envOr("JWT_ISSUER", "creditgate"), "iss claim")
	cmd.Flags().StringVar(&audience, "audience", envOr("JWT_AUDIENCE", "creditgate-api"), "aud claim")
	_ = cmd.MarkFlagRequired("actor")
	return cmd
}

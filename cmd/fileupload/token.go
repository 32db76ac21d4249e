package main

import (
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"github.com/william251082/fileupload/app"
	"github.com/william251082/fileupload/auth"
)

type tokenFlags struct {
	subject string
	name    string
	roles   []string
	ttl     time.Duration
}

func newTokenCmd(flags *globalFlags) *cobra.Command {
	tf := &tokenFlags{}
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development access token",
		Long: `Mint an access token signed with the configured auth.jwt secret.
Intended for local development and smoke tests.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			token, err := mintToken(cfg, tf)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&tf.subject, "sub", "", "Token subject (user id)")
	cmd.Flags().StringVar(&tf.name, "name", "", "Display name")
	cmd.Flags().StringSliceVar(&tf.roles, "roles", []string{"author"}, "Comma separated roles")
	cmd.Flags().DurationVar(&tf.ttl, "ttl", 0, "Token lifetime (defaults to auth.jwt.access_token_ttl)")
	_ = cmd.MarkFlagRequired("sub")
	return cmd
}

func mintToken(cfg *app.Config, tf *tokenFlags) (string, error) {
	cfg.ApplyDefaults()
	tokens, err := app.NewTokenService(cfg.Auth)
	if err != nil {
		return "", err
	}
	claims := &auth.Claims{
		RegisteredClaims: gojwt.RegisteredClaims{Subject: tf.subject},
		Name:             tf.name,
		Roles:            tf.roles,
	}
	if tf.ttl > 0 {
		claims.ExpiresAt = gojwt.NewNumericDate(time.Now().Add(tf.ttl))
	}
	return tokens.GenerateAccess(claims)
}

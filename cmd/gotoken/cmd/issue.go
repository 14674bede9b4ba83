package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goToken "github.com/MrEthical07/goToken"
	gjwt "github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
)

type issueResult struct {
	Token     string `json:"token" yaml:"token"`
	NotBefore int64  `json:"not_before" yaml:"not_before"`
	ExpiresAt int64  `json:"expires_at" yaml:"expires_at"`
}

// describeToken reads the window back from the issued token so the printed
// bounds are exactly the signed nbf and exp.
func describeToken(token string) (issueResult, error) {
	var claims gjwt.RegisteredClaims
	if _, _, err := gjwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return issueResult{}, fmt.Errorf("read issued token: %w", err)
	}
	if claims.NotBefore == nil || claims.ExpiresAt == nil {
		return issueResult{}, errors.New("issued token lacks nbf or exp")
	}
	return issueResult{
		Token:     token,
		NotBefore: claims.NotBefore.Unix(),
		ExpiresAt: claims.ExpiresAt.Unix(),
	}, nil
}

func newIssueCmd(opts *rootOptions) *cobra.Command {
	var (
		payload string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a token carrying a JSON payload",
		Example: `  gotoken issue --payload '{"sub":"u-1","role":"admin"}' --ttl 10m
  gotoken issue --payload '"superadmin"' -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := json.RawMessage(payload)
			if !json.Valid(raw) {
				return errors.New("payload is not valid JSON")
			}

			codec, err := buildCodec(opts, cmd.ErrOrStderr(), nil)
			if err != nil {
				return err
			}
			defer codec.Close()

			var token string
			if cmd.Flags().Changed("ttl") {
				token, err = goToken.IssueFor(codec, raw, ttl)
			} else {
				ttl = codec.DefaultValidity()
				token, err = goToken.Issue(codec, raw)
			}
			if err != nil {
				return fmt.Errorf("issue token: %w", err)
			}

			result, err := describeToken(token)
			if err != nil {
				return err
			}
			if handled, err := writeStructured(cmd.OutOrStdout(), opts.output, result); handled {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintln(cmd.ErrOrStderr(), okFmt("issued"), dimFmt(fmt.Sprintf("valid for %s", ttl)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&payload, "payload", "p", "", "JSON payload to embed")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Validity window (default from config)")
	_ = cmd.MarkFlagRequired("payload")
	return cmd
}

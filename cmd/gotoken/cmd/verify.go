package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"

	goToken "github.com/MrEthical07/goToken"
	"github.com/spf13/cobra"
)

type verifyResult struct {
	Valid   bool        `json:"valid" yaml:"valid"`
	Reason  string      `json:"reason,omitempty" yaml:"reason,omitempty"`
	Payload interface{} `json:"payload,omitempty" yaml:"payload,omitempty"`
}

func newVerifyCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <token>",
		Short: "Verify a token and print its payload",
		Long: `Verify checks the signature and validity window of a token and prints the
embedded payload. Pass - to read the token from stdin. The exit status is
non-zero when the token is rejected.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token := args[0]
			if token == "-" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read token from stdin: %w", err)
				}
				token = line
			}
			token = strings.TrimSpace(token)

			codec, err := buildCodec(opts, cmd.ErrOrStderr(), nil)
			if err != nil {
				return err
			}
			defer codec.Close()

			raw, verr := goToken.Verify[json.RawMessage](codec, token)
			if verr != nil {
				reason := goToken.RejectionReason(verr)
				result := verifyResult{Valid: false, Reason: reason}
				if handled, err := writeStructured(cmd.OutOrStdout(), opts.output, result); handled && err != nil {
					return err
				} else if !handled {
					fmt.Fprintln(cmd.ErrOrStderr(), errFmt("rejected:"), reason)
				}
				return fmt.Errorf("token rejected: %s", reason)
			}

			var payload interface{}
			if err := json.Unmarshal(raw, &payload); err != nil {
				return fmt.Errorf("decode payload: %w", err)
			}
			if handled, err := writeStructured(cmd.OutOrStdout(), opts.output, verifyResult{Valid: true, Payload: payload}); handled {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(raw))
			fmt.Fprintln(cmd.ErrOrStderr(), okFmt("valid"))
			return nil
		},
	}
}

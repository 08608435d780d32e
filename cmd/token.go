package cmd

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/storacha/todos/pkg/auth"
)

// DefaultTokenTTL is how long development tokens are valid for by default.
const DefaultTokenTTL = 24 * time.Hour

var TokenCmd = &cli.Command{
	Name:  "token",
	Usage: "Mint a bearer token for calling a local server.",
	Flags: []cli.Flag{
		RequiredStringFlag(UserFlag),
		TokenSecretFlag,
		TokenTTLFlag,
	},
	Action: func(cCtx *cli.Context) error {
		secret := cCtx.String("secret")
		if secret == "" {
			s, err := randomSecret()
			if err != nil {
				return err
			}
			secret = s
		}

		token, err := auth.NewToken(cCtx.String("user"), []byte(secret), cCtx.Duration("ttl"))
		if err != nil {
			return fmt.Errorf("creating token: %w", err)
		}
		fmt.Fprintln(cCtx.App.Writer, token)
		return nil
	},
}

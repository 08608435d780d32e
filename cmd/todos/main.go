package main

import (
	"os"

	logging "github.com/ipfs/go-log/v2"
	"github.com/urfave/cli/v2"

	"github.com/storacha/todos/cmd"
)

var log = logging.Logger("todos")

func main() {
	logging.SetLogLevel("*", "info")

	app := &cli.App{
		Name:  "todos",
		Usage: "Run and work with a local to-do backend.",
		Flags: []cli.Flag{
			cmd.EnvFileFlag,
		},
		Before: func(cCtx *cli.Context) error {
			return cmd.LoadEnvFile(cCtx.Path("env-file"))
		},
		Commands: []*cli.Command{
			cmd.ServeCmd,
			cmd.TokenCmd,
			cmd.VersionCmd,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

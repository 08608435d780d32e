package cmd

import "github.com/urfave/cli/v2"

func RequiredStringFlag(strFlag *cli.StringFlag) *cli.StringFlag {
	copy := *strFlag
	copy.Required = true
	return &copy
}

var EnvFileFlag = &cli.PathFlag{
	Name:      "env-file",
	Usage:     "Path to a .env file to load environment variables from.",
	Value:     ".env",
	TakesFile: true,
}

var UserFlag = &cli.StringFlag{
	Name:    "user",
	Aliases: []string{"u"},
	Usage:   "User identifier to put in the token subject.",
	EnvVars: []string{"TODOS_USER"},
}

var TokenSecretFlag = &cli.StringFlag{
	Name:    "secret",
	Aliases: []string{"s"},
	Usage:   "Secret to sign the token with. A random secret is used when not set.",
	EnvVars: []string{"TODOS_TOKEN_SECRET"},
}

var TokenTTLFlag = &cli.DurationFlag{
	Name:    "ttl",
	Usage:   "How long the token is valid for.",
	Value:   DefaultTokenTTL,
	EnvVars: []string{"TODOS_TOKEN_TTL"},
}

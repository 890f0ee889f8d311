package flags

import (
	cli "gopkg.in/urfave/cli.v1"
)

// CommonFlags returns the base set of CLI flags shared across commands.
func CommonFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "datadir",
			Usage: "Data directory for databases and keys",
			Value: "~/.helios",
		},
		cli.StringFlag{
			Name:  "config",
			Usage: "Path to a JSON config file applied before flag overrides",
		},
		cli.StringFlag{
			Name:  "log.format",
			Usage: "Log output format (text|json)",
			Value: "text",
		},
		cli.IntFlag{
			Name:  "log.verbosity",
			Usage: "Logging verbosity (0=fatal,1=error,2=warn,3=info,4=debug,5=trace)",
			Value: 3,
		},
		cli.BoolFlag{
			Name:  "log.color",
			Usage: "Enable colored log output",
		},
		cli.StringFlag{
			Name:  "log.sentry",
			Usage: "Sentry DSN for error reporting (disabled when empty)",
		},
		cli.IntFlag{
			Name:  "cache",
			Usage: "Megabytes of memory allocated to database caching",
			Value: 1024,
		},
		cli.StringFlag{
			Name:  "db.preset",
			Usage: "Storage preset (lite|default|full|archive)",
			Value: "default",
		},
	}
}

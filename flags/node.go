package flags

import (
	cli "gopkg.in/urfave/cli.v1"
)

// NodeFlags holds knobs specific to the local node instance.
func NodeFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "identity",
			Usage: "Custom node name used in logs",
		},
		cli.StringFlag{
			Name:  "datadir.chaindata",
			Usage: "Override path to the chaindata DB (defaults to <datadir>/chaindata)",
		},
		cli.IntFlag{
			Name:  "db.handles",
			Usage: "Number of file handles available to the database",
			Value: 512,
		},
	}
}

package flags

import (
	cli "gopkg.in/urfave/cli.v1"
)

// NetworkFlags selects the network rules the node runs under.
func NetworkFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "network",
			Usage: "Network preset to join (main|test|fake)",
			Value: "main",
		},
		cli.IntFlag{
			Name:  "fakenet.key",
			Usage: "Deterministic account key index used on fake networks",
			Value: 1,
		},
	}
}

// ChainFlags holds knobs of the node's own account chain.
func ChainFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "chainkey",
			Usage: "Path to a file holding the hex-encoded chain signing key",
		},
		cli.Uint64Flag{
			Name:  "heads.interval",
			Usage: "Minimum seconds between recorded head history samples",
			Value: 1000,
		},
		cli.IntFlag{
			Name:  "heads.maxsamples",
			Usage: "Maximum retained head history samples per account",
			Value: 1000,
		},
	}
}

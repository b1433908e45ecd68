package cmd

import (
	"runtime"

	"github.com/urfave/cli/v2"
	"github.com/zhengshuai-xiao/HuffPar/xlator/parcodec"
)

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"debug", "v"},
			Usage:   "enable debug log",
		},
		&cli.BoolFlag{
			Name:  "trace",
			Usage: "enable trace log",
		},
		&cli.BoolFlag{
			Name:    "quiet",
			Aliases: []string{"q"},
			Usage:   "show warning and errors only",
		},
		&cli.StringFlag{
			Name:  "loglevel",
			Usage: "log level: trace/debug/info/warn/error",
			Value: "info",
		},
		&cli.StringFlag{
			Name:    "log-file",
			Usage:   "write logs to this file, rotated daily",
			EnvVars: []string{"HUFFPAR_LOG_FILE"},
		},
		&cli.BoolFlag{
			Name:  "log-json",
			Usage: "write logs as one JSON object per line",
		},
		&cli.BoolFlag{
			Name:  "no-color",
			Usage: "disable colors",
		},
	}
}

func codecFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "threads",
			Aliases: []string{"t"},
			Value:   runtime.NumCPU(),
			Usage:   "number of worker threads",
			EnvVars: []string{"HUFFPAR_THREADS"},
		},
		&cli.StringFlag{
			Name:    "chunk-size",
			Aliases: []string{"c"},
			Value:   "1MB",
			Usage:   "bytes per chunk when compressing, e.g. 512KB or 4MB",
			EnvVars: []string{"HUFFPAR_CHUNK_SIZE"},
		},
		&cli.IntFlag{
			Name:  "max-in-flight",
			Value: 0,
			Usage: "bound on chunks held in memory; 0 keeps all results until the input is done",
		},
		&cli.BoolFlag{
			Name:  "progress",
			Usage: "log progress while running",
		},
		&cli.StringFlag{
			Name:  "events-redis",
			Usage: "publish progress events to this redis address (host:port[/db])",
		},
		&cli.StringFlag{
			Name:  "events-channel",
			Value: parcodec.DefaultEventChannel,
			Usage: "redis channel for progress events",
		},
	}
}

func storageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "s3-endpoint",
			Value:   "localhost:9000",
			Usage:   "S3 endpoint used for s3://bucket/key paths",
			EnvVars: []string{"S3_ENDPOINT"},
		},
		&cli.StringFlag{
			Name:    "s3-access-key",
			Usage:   "S3 access key",
			EnvVars: []string{"S3_ACCESS_KEY"},
		},
		&cli.StringFlag{
			Name:    "s3-secret-key",
			Usage:   "S3 secret key",
			EnvVars: []string{"S3_SECRET_KEY"},
		},
		&cli.BoolFlag{
			Name:  "s3-ssl",
			Usage: "use https for the S3 endpoint",
		},
		&cli.StringFlag{
			Name:  "tmp-dir",
			Usage: "directory for staging s3:// inputs and outputs",
		},
	}
}

func expandFlags(compoundFlags ...[]cli.Flag) []cli.Flag {
	var flags []cli.Flag
	for _, flags1 := range compoundFlags {
		flags = append(flags, flags1...)
	}
	return flags
}

package main

import (
	"os"

	"github.com/andresuchdata/stockhealth/backend-go/pkg/logger"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "stockhealth",
		Usage: "Classify outlet inventory extracts and print the consolidated view",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Before: func(c *cli.Context) error {
			// stdout carries the JSON result, logs go to stderr
			logger.Setup(c.String("log-level"), "console", os.Stderr)
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Classify the extracts found in a local directory",
				Flags: append(classificationFlags(),
					&cli.StringFlag{
						Name:    "dir",
						Usage:   "Directory containing stock and sales extracts",
						EnvVars: []string{"APP_SOURCE_DIR"},
					},
				),
				Action: runLocal,
			},
			{
				Name:  "sync-bucket",
				Usage: "Download extracts from object storage and classify them",
				Flags: append(classificationFlags(),
					&cli.StringFlag{
						Name:    "prefix",
						Usage:   "Object key prefix holding the extracts",
						EnvVars: []string{"STORAGE_PREFIX"},
					},
				),
				Action: runBucket,
			},
			{
				Name:  "sync-drive",
				Usage: "Download extracts from a Google Drive folder and classify them",
				Flags: append(classificationFlags(),
					&cli.StringFlag{
						Name:    "folder-id",
						Usage:   "Google Drive folder ID containing the extracts",
						EnvVars: []string{"DRIVE_FOLDER_ID"},
					},
				),
				Action: runDrive,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("stockhealth failed")
	}
}

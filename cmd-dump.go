package main

import (
	"fmt"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/dustin/go-humanize"
	jsoniter "github.com/json-iterator/go"
	"github.com/urfave/cli/v2"
	"k8s.io/klog/v2"
)

func newCmd_Dump() *cli.Command {
	return &cli.Command{
		Name:        "dump",
		Usage:       "Dump the records of a spill file as JSON lines.",
		Description: "Dump the records of a spill file as JSON lines. The file carries no header, so pass --count to limit the dump to valid records (by default it runs from --start to the end of the file, which includes the reserved tail).",
		ArgsUsage:   "<spill-file>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "start",
				Usage: "record index to start dumping from",
			},
			&cli.IntFlag{
				Name:        "count",
				Usage:       "number of records to dump, counted from --start",
				DefaultText: "rest of the file",
				Value:       -1,
			},
			&cli.BoolFlag{
				Name:  "spew",
				Usage: "print records with spew instead of JSON (for debugging)",
			},
		},
		Action: func(c *cli.Context) error {
			path := c.Args().First()
			if path == "" {
				return cli.Exit("expected a spill file argument", 1)
			}
			rac, err := openSpillReadOnly(path)
			if err != nil {
				return err
			}
			defer rac.Close()

			klog.Infof("dumping %s (%s)", path, humanize.IBytes(uint64(rac.Len())))

			start := c.Int("start")
			count := c.Int("count")
			if count < 0 {
				count = maxRecordsIn(rac.Len()) - start
			}
			if start+count > maxRecordsIn(rac.Len()) {
				return fmt.Errorf("file %s holds at most %d records, asked for [%d, %d)", path, maxRecordsIn(rac.Len()), start, start+count)
			}

			recs, err := readFuzzyRecords(rac, start, count)
			if err != nil {
				return err
			}
			if c.Bool("spew") {
				spew.Fdump(os.Stdout, recs)
				return nil
			}

			enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(os.Stdout)
			for i, rec := range recs {
				err := enc.Encode(map[string]any{
					"index":   start + i,
					"address": fmt.Sprintf("0x%x", rec.Address),
					"type":    rec.Type.String(),
					"value":   rec.Value[:rec.Type.Size()],
					"int64":   rec.AsInt64(),
					"float64": rec.AsFloat64(),
				})
				if err != nil {
					return fmt.Errorf("failed to encode record %d: %w", start+i, err)
				}
			}
			return nil
		},
	}
}

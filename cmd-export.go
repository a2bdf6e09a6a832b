package main

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/klauspost/compress/zstd"
	"github.com/urfave/cli/v2"
	"k8s.io/klog/v2"
)

type exportedRecord struct {
	Address uint64  `json:"address"`
	Value   []byte  `json:"value"`
	Type    string  `json:"type"`
	Int64   int64   `json:"int64"`
	Float64 float64 `json:"float64"`
}

func newCmd_Export() *cli.Command {
	return &cli.Command{
		Name:        "export",
		Usage:       "Export a spill file to a zstd-compressed JSON snapshot.",
		Description: "Writes the valid records of a spill file as zstd-compressed JSON lines (one object per record), for archiving a result set or moving it between machines.",
		ArgsUsage:   "<spill-file> <out-file>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "count",
				Usage:       "number of valid records in the file",
				DefaultText: "whole file",
				Value:       -1,
			},
		},
		Action: func(c *cli.Context) error {
			if c.Args().Len() != 2 {
				return cli.Exit("expected a spill file and an output file argument", 1)
			}
			path := c.Args().Get(0)
			outPath := c.Args().Get(1)

			rac, err := openSpillReadOnly(path)
			if err != nil {
				return err
			}
			defer rac.Close()

			count := c.Int("count")
			if count < 0 {
				count = maxRecordsIn(rac.Len())
			}
			if count > maxRecordsIn(rac.Len()) {
				return fmt.Errorf("file %s holds at most %d records, asked for %d", path, maxRecordsIn(rac.Len()), count)
			}

			out, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", outPath, err)
			}
			defer out.Close()

			zw, err := zstd.NewWriter(out)
			if err != nil {
				return fmt.Errorf("failed to create zstd writer: %w", err)
			}
			enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(zw)

			const chunkRecords = 64 * 1024
			exported := 0
			for start := 0; start < count; start += chunkRecords {
				n := min(chunkRecords, count-start)
				recs, err := readFuzzyRecords(rac, start, n)
				if err != nil {
					zw.Close()
					return err
				}
				for _, rec := range recs {
					err := enc.Encode(exportedRecord{
						Address: rec.Address,
						Value:   rec.Value[:rec.Type.Size()],
						Type:    rec.Type.String(),
						Int64:   rec.AsInt64(),
						Float64: rec.AsFloat64(),
					})
					if err != nil {
						zw.Close()
						return fmt.Errorf("failed to encode record: %w", err)
					}
					exported++
				}
			}
			if err := zw.Close(); err != nil {
				return fmt.Errorf("failed to finish zstd stream: %w", err)
			}

			klog.Infof("exported %d records from %s to %s", exported, path, outPath)
			return nil
		},
	}
}

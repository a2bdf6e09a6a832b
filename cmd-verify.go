package main

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
	"k8s.io/klog/v2"

	"github.com/Shirasuki/MX/scanresults"
)

func newCmd_Verify() *cli.Command {
	return &cli.Command{
		Name:        "verify",
		Usage:       "Integrity-check a spill file and print its content digest.",
		Description: "Checks that the claimed record count fits the file, that every type tag is valid, and prints an xxhash digest of the valid region for comparing snapshots.",
		ArgsUsage:   "<spill-file>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "count",
				Usage:       "number of valid records in the file",
				DefaultText: "whole file",
				Value:       -1,
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

			count := c.Int("count")
			if count < 0 {
				count = maxRecordsIn(rac.Len())
			}
			validLen := count * scanresults.FuzzyResultSize
			if validLen > rac.Len() {
				return fmt.Errorf("file %s is %s but %d records need %s",
					path, humanize.IBytes(uint64(rac.Len())), count, humanize.IBytes(uint64(validLen)))
			}

			digest := xxhash.New()
			badTags := 0
			const chunkRecords = 64 * 1024
			for start := 0; start < count; start += chunkRecords {
				n := min(chunkRecords, count-start)
				recs, err := readFuzzyRecords(rac, start, n)
				if err != nil {
					return err
				}
				var buf [scanresults.FuzzyResultSize]byte
				for i, rec := range recs {
					if !rec.Type.Valid() {
						badTags++
						if badTags <= 10 {
							klog.Warningf("record %d has invalid type tag %d", start+i, uint8(rec.Type))
						}
					}
					rec.MarshalInto(buf[:])
					if _, err := digest.Write(buf[:]); err != nil {
						return err
					}
				}
			}

			fmt.Printf("file: %s\n", path)
			fmt.Printf("size: %s\n", humanize.IBytes(uint64(rac.Len())))
			fmt.Printf("records checked: %s\n", humanize.Comma(int64(count)))
			fmt.Printf("invalid type tags: %d\n", badTags)
			fmt.Printf("xxhash: %016x\n", digest.Sum64())

			if badTags > 0 {
				return cli.Exit("spill file contains invalid type tags", 1)
			}
			return nil
		},
	}
}

package main

import (
	"encoding/binary"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
	"github.com/vbauerster/mpb/v8/decor"
	"k8s.io/klog/v2"

	"github.com/Shirasuki/MX/scanresults"
)

func newCmd_Bench() *cli.Command {
	return &cli.Command{
		Name:        "bench",
		Usage:       "Benchmark fill, read, and refinement throughput of a result store.",
		Description: "Fills a fuzzy result store past its RAM budget so the spill path is exercised, then measures paged reads and a keep-only refinement pass.",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "records",
				Usage: "number of records to add",
				Value: 1_000_000,
			},
			&cli.IntFlag{
				Name:  "ram-budget",
				Usage: "RAM budget in bytes (0 = direct to disk)",
				Value: 1 * 1024 * 1024,
			},
			&cli.StringFlag{
				Name:        "cache-dir",
				Usage:       "directory for the spill file",
				DefaultText: "a temporary directory",
			},
		},
		Action: func(c *cli.Context) error {
			n := c.Int("records")
			budget := c.Int("ram-budget")
			cacheDir := c.String("cache-dir")
			if cacheDir == "" {
				var err error
				cacheDir, err = os.MkdirTemp("", "mx-bench-")
				if err != nil {
					return fmt.Errorf("failed to create bench cache dir: %w", err)
				}
				defer os.RemoveAll(cacheDir)
			}

			store := scanresults.NewFuzzyStore(budget, cacheDir)
			defer store.Destroy()

			fillStart := time.Now()
			var value [8]byte
			for i := 0; i < n; i++ {
				binary.LittleEndian.PutUint32(value[:4], uint32(i))
				if err := store.Add(scanresults.NewFuzzyResult(uint64(0x10000+i*4), value, scanresults.TypeDword)); err != nil {
					return fmt.Errorf("add failed at record %d: %w", i, err)
				}
			}
			fillDur := time.Since(fillStart)

			bytesWritten := int64(n * scanresults.FuzzyResultSize)
			fmt.Printf("fill: %s records in %s (%s records/s, % .2f/s)\n",
				humanize.Comma(int64(n)), fillDur.Round(time.Millisecond),
				humanize.Comma(int64(float64(n)/fillDur.Seconds())),
				decor.SizeB1000(float64(bytesWritten)/fillDur.Seconds()))
			fmt.Printf("memory: %s records, disk: %s records\n",
				humanize.Comma(int64(store.MemoryCount())), humanize.Comma(int64(store.DiskCount())))

			const pageSize = 4096
			readStart := time.Now()
			read := 0
			for start := 0; start < store.TotalCount(); start += pageSize {
				page, err := store.Get(start, pageSize)
				if err != nil {
					return fmt.Errorf("paged read failed at %d: %w", start, err)
				}
				read += len(page)
			}
			readDur := time.Since(readStart)
			fmt.Printf("read: %s records in %s (%s records/s)\n",
				humanize.Comma(int64(read)), readDur.Round(time.Millisecond),
				humanize.Comma(int64(float64(read)/readDur.Seconds())))

			// keep every 1000th record, the shape of a typical refinement
			keep := make([]int, 0, n/1000+1)
			for i := 0; i < n; i += 1000 {
				keep = append(keep, i)
			}
			refineStart := time.Now()
			if err := store.KeepOnly(keep); err != nil {
				return fmt.Errorf("keep-only failed: %w", err)
			}
			refineDur := time.Since(refineStart)
			fmt.Printf("refine: kept %s of %s records in %s\n",
				humanize.Comma(int64(store.TotalCount())), humanize.Comma(int64(n)),
				refineDur.Round(time.Millisecond))

			klog.V(2).Infof("bench cache dir was %s", cacheDir)
			return nil
		},
	}
}

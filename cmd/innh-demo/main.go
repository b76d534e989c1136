//
// Copyright 2025 the innh-demo authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

// The innh-demo binary privatizes a CSV histogram of name,count records
// and writes the privatized histogram back out as CSV. It is orchestration
// glue around the histogram package: all privacy-relevant work happens in
// the library.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	log "github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/cilvento/innh-demo/expmech"
	"github.com/cilvento/innh-demo/histogram"
	"github.com/cilvento/innh-demo/partition"
	"github.com/cilvento/innh-demo/rand"
)

var (
	trials   int
	distance string
	etaX     uint32
	etaY     uint32
	etaZ     uint32
	seed     int64
)

var rootCmd = &cobra.Command{
	Use:   "innh-demo INPUT",
	Short: "Privatize an integer histogram read from a CSV file",
	Long: `innh-demo reads name,count records from INPUT, produces a
differentially private histogram over the same names, and writes
name,count CSV records to stdout. Each trial spends a fresh budget of
two stages at Eta(x, y, z) each.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(args[0], cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.Flags().IntVarP(&trials, "trials", "t", 1, "number of trial loops to run")
	rootCmd.Flags().StringVarP(&distance, "distance", "d", "L1", "partition distance metric (L1 or LInf)")
	rootCmd.Flags().Uint32Var(&etaX, "eta-x", 1, "per-stage budget numerator x")
	rootCmd.Flags().Uint32Var(&etaY, "eta-y", 1, "per-stage budget exponent y")
	rootCmd.Flags().Uint32Var(&etaZ, "eta-z", 1, "per-stage budget multiplier z")
	rootCmd.Flags().Int64Var(&seed, "seed", 0, "seed for a deterministic source; 0 uses secure randomness")
}

func run(input string, out io.Writer) error {
	counts, err := readCounts(input)
	if err != nil {
		return err
	}
	stage, err := expmech.NewEta(etaX, etaY, etaZ)
	if err != nil {
		return err
	}
	dist := partition.ParseDistance(distance)
	src := rand.Secure()
	if seed != 0 {
		log.Warningf("using deterministic randomness with seed %d, output is not private", seed)
		src = rand.NewSeeded(seed)
	}

	w := csv.NewWriter(out)
	defer w.Flush()
	if err := w.Write([]string{"trial", "name", "count"}); err != nil {
		return err
	}
	for trial := 0; trial < trials; trial++ {
		p, err := histogram.NewPrivatizer(&histogram.PrivatizerOptions{
			Stage1:   &stage,
			Stage2:   &stage,
			Distance: dist,
			Rand:     src,
		})
		if err != nil {
			return err
		}
		log.Infof("trial %d: total declared budget eta=%f", trial, p.TotalBudget())
		result, err := p.Result(counts)
		if err != nil {
			return err
		}
		for _, rec := range canonicalOrder(result) {
			if err := w.Write([]string{strconv.Itoa(trial), rec.name, strconv.FormatInt(rec.count, 10)}); err != nil {
				return err
			}
		}
	}
	return nil
}

type record struct {
	name  string
	count int64
}

// readCounts parses name,count records, skipping a header row if present.
func readCounts(path string) (map[string]int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 2
	counts := make(map[string]int64)
	for line := 0; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		c, err := strconv.ParseInt(rec[1], 10, 64)
		if err != nil {
			if line == 0 {
				continue // header
			}
			return nil, fmt.Errorf("parsing %s line %d: %v", path, line+1, err)
		}
		counts[rec[0]] = c
	}
	if len(counts) == 0 {
		return nil, fmt.Errorf("no records found in %s", path)
	}
	return counts, nil
}

// canonicalOrder sorts by descending count and then name, the same
// ordering the privatizer uses internally.
func canonicalOrder(counts map[string]int64) []record {
	recs := make([]record, 0, len(counts))
	for name, count := range counts {
		recs = append(recs, record{name, count})
	}
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].count != recs[j].count {
			return recs[i].count > recs[j].count
		}
		return recs[i].name < recs[j].name
	})
	return recs
}

func main() {
	// glog registers its flags on the standard flag set.
	flag.CommandLine.Parse([]string{})
	if err := rootCmd.Execute(); err != nil {
		log.Exitf("innh-demo: %v", err)
	}
}

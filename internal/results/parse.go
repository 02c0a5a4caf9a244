package results

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"

	"kvbench/internal/workload"
)

var linePattern = regexp.MustCompile(`thread count = (\d+), read = (\d+), update = (\d+), insert = (\d+), delete = (\d+), throughput = ([0-9.]+) M ops`)

// Entry is one report line read back from a log
type Entry struct {
	Threads  int
	Workload workload.Config
	Mops     float64
}

// ParseLine reads a line written by RunResult.Line. Leading text such as a
// timestamp is tolerated.
func ParseLine(line string) (Entry, error) {
	m := linePattern.FindStringSubmatch(line)
	if m == nil {
		return Entry{}, fmt.Errorf("not a report line: %q", line)
	}

	ints := make([]int, 5)
	for i := range ints {
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return Entry{}, fmt.Errorf("bad field in %q: %w", line, err)
		}
		ints[i] = n
	}
	mops, err := strconv.ParseFloat(m[6], 64)
	if err != nil {
		return Entry{}, fmt.Errorf("bad throughput in %q: %w", line, err)
	}

	return Entry{
		Threads:  ints[0],
		Workload: workload.Config{Read: ints[1], Update: ints[2], Insert: ints[3], Delete: ints[4]},
		Mops:     mops,
	}, nil
}

// ReadLog parses every report line in r and skips anything else
func ReadLog(r io.Reader) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		entry, err := ParseLine(scanner.Text())
		if err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read report log: %w", err)
	}
	return entries, nil
}

// Table is throughput indexed by workload then thread count. Later entries
// for the same cell overwrite earlier ones.
type Table struct {
	Workloads []workload.Config
	Threads   []int
	Mops      map[workload.Config]map[int]float64
}

func BuildTable(entries []Entry) Table {
	t := Table{Mops: make(map[workload.Config]map[int]float64)}
	seenThreads := make(map[int]bool)

	for _, e := range entries {
		row, ok := t.Mops[e.Workload]
		if !ok {
			row = make(map[int]float64)
			t.Mops[e.Workload] = row
			t.Workloads = append(t.Workloads, e.Workload)
		}
		row[e.Threads] = e.Mops
		if !seenThreads[e.Threads] {
			seenThreads[e.Threads] = true
			t.Threads = append(t.Threads, e.Threads)
		}
	}
	sort.Ints(t.Threads)
	return t
}

// WriteTo renders the table with one row per workload
func (t Table) WriteTo(w io.Writer) (int64, error) {
	var written int64
	emit := func(format string, args ...interface{}) error {
		n, err := fmt.Fprintf(w, format, args...)
		written += int64(n)
		return err
	}

	if err := emit("%-14s", "workload"); err != nil {
		return written, err
	}
	for _, n := range t.Threads {
		if err := emit("%8d", n); err != nil {
			return written, err
		}
	}
	if err := emit("\n"); err != nil {
		return written, err
	}

	for _, wl := range t.Workloads {
		if err := emit("%-14s", wl.String()); err != nil {
			return written, err
		}
		for _, n := range t.Threads {
			v, ok := t.Mops[wl][n]
			if !ok {
				if err := emit("%8s", "-"); err != nil {
					return written, err
				}
				continue
			}
			if err := emit("%8.1f", v); err != nil {
				return written, err
			}
		}
		if err := emit("\n"); err != nil {
			return written, err
		}
	}
	return written, nil
}

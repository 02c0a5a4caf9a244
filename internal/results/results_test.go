package results

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kvbench/internal/workload"
)

var libcuckoo = workload.Config{Read: 80, Insert: 20}

func TestAggregate(t *testing.T) {
	meta := Meta{RunID: "run", Container: "xsync", Threads: 3, Workload: libcuckoo}

	r := Aggregate(meta, []uint64{1_000_000, 2_000_000, 3_000_000}, []uint64{1, 2, 3}, 2*time.Second)

	assert.Equal(t, uint64(6_000_000), r.TotalOperations)
	assert.Equal(t, uint64(6), r.Misses)
	assert.InDelta(t, 3_000_000, r.Throughput, 1e-6)
	assert.InDelta(t, 3.0, r.MopsPerSec(), 1e-9)
	assert.Equal(t, "run", r.RunID)
	assert.Equal(t, 3, r.Threads)
	assert.Equal(t, libcuckoo, r.Workload)
}

func TestAggregate_ZeroElapsed(t *testing.T) {
	r := Aggregate(Meta{Threads: 1}, []uint64{10}, nil, 0)
	assert.Zero(t, r.Throughput)
	assert.Equal(t, uint64(10), r.TotalOperations)
}

func TestLine(t *testing.T) {
	r := Aggregate(Meta{Threads: 8, Workload: workload.Config{Read: 50, Update: 30, Insert: 10, Delete: 10}},
		[]uint64{12_340_000}, nil, time.Second)

	assert.Equal(t, "thread count = 8, read = 50, update = 30, insert = 10, delete = 10, throughput = 12.3 M ops", r.Line())
}

func TestNewRunID(t *testing.T) {
	a, b := NewRunID(), NewRunID()
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 36)
}

func TestParseLine(t *testing.T) {
	r := Aggregate(Meta{Threads: 16, Workload: libcuckoo}, []uint64{45_000_000}, nil, time.Second)

	entry, err := ParseLine("2026-10-19T10:00:00Z " + r.Line())
	require.NoError(t, err)
	assert.Equal(t, 16, entry.Threads)
	assert.Equal(t, libcuckoo, entry.Workload)
	assert.InDelta(t, 45.0, entry.Mops, 1e-9)

	_, err = ParseLine("thread count = x")
	assert.Error(t, err)
}

func TestReadLogAndTable(t *testing.T) {
	log := strings.Join([]string{
		"thread count = 1, read = 80, update = 0, insert = 20, delete = 0, throughput = 10.0 M ops",
		"some unrelated line",
		"thread count = 8, read = 80, update = 0, insert = 20, delete = 0, throughput = 55.5 M ops",
		"thread count = 1, read = 100, update = 0, insert = 0, delete = 0, throughput = 20.0 M ops",
	}, "\n")

	entries, err := ReadLog(strings.NewReader(log))
	require.NoError(t, err)
	require.Len(t, entries, 3)

	table := BuildTable(entries)
	assert.Equal(t, []int{1, 8}, table.Threads)
	assert.Equal(t, []workload.Config{libcuckoo, {Read: 100}}, table.Workloads)
	assert.InDelta(t, 55.5, table.Mops[libcuckoo][8], 1e-9)

	var buf bytes.Buffer
	n, err := table.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "80,0,20,0")
	assert.Contains(t, lines[1], "55.5")
	assert.Contains(t, lines[2], "-", "missing cells are dashed")
}

func TestReporter_TextAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kvbench.log")
	require.NoError(t, os.WriteFile(path, []byte("previous sweep\n"), 0644))

	var console bytes.Buffer
	reporter, err := NewReporter(ReporterConfig{Console: &console, LogFile: path, Format: "text"})
	require.NoError(t, err)

	r1 := Aggregate(Meta{Threads: 1, Workload: libcuckoo}, []uint64{1_000_000}, nil, time.Second)
	r2 := Aggregate(Meta{Threads: 8, Workload: libcuckoo}, []uint64{8_000_000}, nil, time.Second)
	require.NoError(t, reporter.Report(r1))
	require.NoError(t, reporter.Report(r2))

	// Each line is on disk before Close
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "previous sweep\n"+r1.Line()+"\n"+r2.Line()+"\n", string(data))

	require.NoError(t, reporter.Close())
	require.NoError(t, reporter.Close())

	assert.Equal(t, r1.Line()+"\n"+r2.Line()+"\n", console.String())
}

func TestReporter_JSON(t *testing.T) {
	var console bytes.Buffer
	reporter, err := NewReporter(ReporterConfig{Console: &console, Format: "json"})
	require.NoError(t, err)
	defer reporter.Close()

	r := Aggregate(Meta{RunID: "abc", Container: "cmap", Threads: 4, Workload: libcuckoo}, []uint64{400}, []uint64{2}, time.Second)
	require.NoError(t, reporter.Report(r))

	var decoded RunResult
	require.NoError(t, json.Unmarshal(console.Bytes(), &decoded))
	assert.Equal(t, "abc", decoded.RunID)
	assert.Equal(t, "cmap", decoded.Container)
	assert.Equal(t, uint64(400), decoded.TotalOperations)
	assert.Equal(t, uint64(2), decoded.Misses)
	assert.Equal(t, libcuckoo, decoded.Workload)
}

func TestReporter_BadPath(t *testing.T) {
	_, err := NewReporter(ReporterConfig{LogFile: filepath.Join(t.TempDir(), "missing", "dir", "log")})
	assert.Error(t, err)
}

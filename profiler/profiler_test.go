package profiler

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadProfiler_RecordStage(t *testing.T) {
	p := NewLoadProfiler()
	p.RecordStage("parse", 30*time.Millisecond)
	p.RecordStage("load_index", 5*time.Millisecond)
	p.RecordStage("parse", 10*time.Millisecond)

	stages := p.Stages()
	require.Len(t, stages, 2)

	assert.Equal(t, "parse", stages[0].Name)
	assert.Equal(t, 2, stages[0].Count)
	assert.Equal(t, 10*time.Millisecond, stages[0].MinTime)
	assert.Equal(t, 30*time.Millisecond, stages[0].MaxTime)
	assert.Equal(t, 20*time.Millisecond, stages[0].Average())

	assert.Equal(t, "load_index", stages[1].Name)
	assert.Equal(t, time.Duration(0), StageTracker{}.Average())
}

func TestLoadProfiler_StartStage(t *testing.T) {
	p := NewLoadProfiler()
	done := p.StartStage("assemble")
	done()

	stages := p.Stages()
	require.Len(t, stages, 1)
	assert.Equal(t, 1, stages[0].Count)
	assert.GreaterOrEqual(t, stages[0].TotalTime, time.Duration(0))
}

func TestLoadProfiler_Concurrent(t *testing.T) {
	p := NewLoadProfiler()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.RecordStage("encode", time.Microsecond)
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, p.Stages()[0].Count)
}

func TestLoadProfiler_Report(t *testing.T) {
	p := NewLoadProfiler()
	p.RecordStage("parse", 2*time.Millisecond)
	p.SetCount("instances", 12)
	p.SetCount("images", 4)

	n, ok := p.Count("instances")
	assert.True(t, ok)
	assert.Equal(t, 12, n)
	_, ok = p.Count("missing")
	assert.False(t, ok)

	var buf bytes.Buffer
	p.Report(&buf)
	out := buf.String()

	assert.Contains(t, out, "STAGE TIMINGS:")
	assert.Contains(t, out, "parse: avg=2ms")
	assert.Contains(t, out, "  images: 4\n  instances: 12\n")
	assert.Contains(t, out, "Heap Alloc:")
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.0 KB", formatBytes(1024))
	assert.Equal(t, "1.5 MB", formatBytes(1536*1024))
}

package utils

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimer_Phases(t *testing.T) {
	clock := NewMockClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	timer := NewTimer("analyze", WithClock(clock))

	parse := timer.Start("parse")
	clock.Advance(30 * time.Millisecond)
	assert.Equal(t, 30*time.Millisecond, parse.Stop())

	render := timer.Start("render")
	clock.Advance(5 * time.Millisecond)
	render.Stop()
	clock.Advance(time.Second)
	assert.Equal(t, 5*time.Millisecond, render.Stop(), "second Stop keeps the first duration")

	phases := timer.Phases()
	require.Len(t, phases, 2)
	assert.Equal(t, "parse", phases[0].Name)
	assert.Equal(t, "render", phases[1].Name)
	assert.Equal(t, 30*time.Millisecond, timer.Duration("parse"))
	assert.Equal(t, time.Duration(0), timer.Duration("missing"))
	assert.Equal(t, 1035*time.Millisecond, timer.Total())
}

func TestTimer_Summary(t *testing.T) {
	clock := NewMockClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	timer := NewTimer("analyze", WithClock(clock))

	p := timer.Start("parse")
	clock.Advance(2 * time.Second)
	p.Stop()

	assert.Equal(t, "=== analyze timing ===\n1. parse: 2s\ntotal: 2s\n", timer.Summary())
}

func TestTimer_PrintSummary(t *testing.T) {
	buf := &bytes.Buffer{}
	timer := NewTimer("analyze", WithLogger(NewDefaultLogger(LevelDebug, buf)))
	timer.Start("parse").Stop()

	timer.PrintSummary()

	assert.Contains(t, buf.String(), "=== analyze timing ===")
	assert.Contains(t, buf.String(), "1. parse:")
}

func TestMockClock(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewMockClock(start)

	clock.Advance(time.Hour)

	assert.Equal(t, start.Add(time.Hour), clock.Now())
	assert.Equal(t, time.Hour, clock.Since(start))
	assert.WithinDuration(t, time.Now(), NewRealClock().Now(), time.Second)
}

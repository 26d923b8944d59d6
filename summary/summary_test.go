package summary

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSVHasHeaderAndOnePhaseColumn(t *testing.T) {
	r := New()
	r.AddBytesSent(100)
	r.AddBytesRecv(42)
	r.ObservePhase("client_phase", 2*time.Second)

	var buf bytes.Buffer
	require.NoError(t, r.WriteCSV(&buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "bytes_sent")
	assert.Contains(t, lines[0], "phase_client_phase_seconds")
	assert.Contains(t, lines[1], "100")
	assert.Contains(t, lines[1], "42")
}

func TestTimePhaseRecordsElapsed(t *testing.T) {
	r := New()
	err := r.TimePhase("work", func() error {
		time.Sleep(time.Millisecond)
		return nil
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.WriteCSV(&buf))
	assert.Contains(t, buf.String(), "phase_work_seconds")
}

func TestAddBytesAccumulatesConcurrently(t *testing.T) {
	r := New()
	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func() {
			r.AddBytesSent(1)
			done <- struct{}{}
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}
	var buf bytes.Buffer
	require.NoError(t, r.WriteCSV(&buf))
	assert.Contains(t, buf.String(), "10")
}

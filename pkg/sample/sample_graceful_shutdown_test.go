package sample

import (
	"testing"
	"time"

	"github.com/itohio/gotds/pkg/config"
	"github.com/itohio/gotds/pkg/probe"
	"github.com/stretchr/testify/assert"
)

// TestConverter_GracefulShutdown tests that converter closes output channel
// when input channel is closed.
func TestConverter_GracefulShutdown(t *testing.T) {
	converter := NewConverter(config.Default(), 10)
	input := make(chan probe.RawSample, 10)
	output := converter(input)

	// Read samples in background
	received := make(chan int, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		count := 0
		for range output {
			count++
		}
		received <- count
	}()

	now := time.Now()
	numSamples := 3
	for i := 0; i < numSamples; i++ {
		input <- probe.RawSample{
			Timestamp: now.Add(time.Duration(i) * time.Second),
			ADC:       620,
			TempC:     25,
		}
	}

	// Close input channel - this should cause converter to close output
	close(input)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Output channel did not close within timeout")
	}

	select {
	case count := <-received:
		assert.Equal(t, numSamples, count, "Should receive all samples before channel closes")
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Did not receive sample count")
	}
}

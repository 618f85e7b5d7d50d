package probe

import (
	"strings"
	"testing"
	"time"

	"github.com/itohio/gotds/pkg/sensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    RawSample
		wantErr bool
	}{
		{
			name: "valid line",
			line: "1234567890123,620,24.75",
			want: RawSample{
				Timestamp: time.UnixMicro(1234567890123),
				ADC:       620,
				TempC:     24.75,
			},
		},
		{
			name: "negative temperature",
			line: "1234567890123,0,-1.5",
			want: RawSample{
				Timestamp: time.UnixMicro(1234567890123),
				ADC:       0,
				TempC:     -1.5,
			},
		},
		{
			name: "full scale",
			line: "1,4095,25",
			want: RawSample{
				Timestamp: time.UnixMicro(1),
				ADC:       4095,
				TempC:     25,
			},
		},
		{
			name:    "invalid - wrong number of fields",
			line:    "1234567890123,620",
			wantErr: true,
		},
		{
			name:    "invalid - too many fields",
			line:    "1234567890123,620,24.75,extra",
			wantErr: true,
		},
		{
			name:    "invalid - non-numeric timestamp",
			line:    "abc,620,24.75",
			wantErr: true,
		},
		{
			name:    "invalid - negative adc",
			line:    "1234567890123,-3,24.75",
			wantErr: true,
		},
		{
			name:    "invalid - adc out of range",
			line:    "1234567890123,5000,24.75",
			wantErr: true,
		},
		{
			name:    "invalid - non-numeric temperature",
			line:    "1234567890123,620,warm",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseLine(tt.line, DefaultMaxCount)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.Timestamp.UnixNano(), got.Timestamp.UnixNano())
			assert.Equal(t, tt.want.ADC, got.ADC)
			assert.Equal(t, tt.want.TempC, got.TempC)
		})
	}
}

func TestParseLine_RespectsResolution(t *testing.T) {
	_, err := parseLine("1,1023,25", 1023)
	assert.NoError(t, err)

	_, err = parseLine("1,1024,25", 1023)
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	dev := New("/dev/ttyACM0", 57600, 10, 1023)
	assert.NotNil(t, dev)
	assert.Equal(t, "/dev/ttyACM0", dev.port)
	assert.Equal(t, 57600, dev.baudRate)
	assert.Equal(t, 10, dev.bufSize)
	assert.Equal(t, uint16(1023), dev.maxCount)
	assert.NotNil(t, dev.samples)
	assert.False(t, dev.IsConnected())
}

func TestNew_Defaults(t *testing.T) {
	dev := New("/dev/ttyACM0", 0, 0, 0)
	assert.Equal(t, DefaultBaudRate, dev.baudRate)
	assert.Equal(t, DefaultBufferSize, dev.bufSize)
	assert.Equal(t, uint16(DefaultMaxCount), dev.maxCount)
}

func TestSerial_CloseWhenNotConnected(t *testing.T) {
	dev := New("/dev/ttyACM0", 0, 0, 0)
	assert.NoError(t, dev.Close())
}

func TestSerial_ReadSamples(t *testing.T) {
	dev := New("test", 0, 10, 0)

	input := strings.Join([]string{
		"1000,620,24.75",
		"",
		"garbage",
		"2000,9999,24.75", // out of range, skipped
		"3000,640,25.00",
	}, "\n")
	dev.readSamples(dev.ctx, dev.samples, strings.NewReader(input))

	require.Len(t, dev.samples, 2)
	first := <-dev.samples
	second := <-dev.samples
	assert.Equal(t, uint16(620), first.ADC)
	assert.Equal(t, uint16(640), second.ADC)
	assert.Equal(t, time.UnixMicro(3000).UnixNano(), second.Timestamp.UnixNano())
}

func TestSerial_ReadSamplesDropsWhenFull(t *testing.T) {
	dev := New("test", 0, 1, 0)

	dev.readSamples(dev.ctx, dev.samples, strings.NewReader("1,100,25\n2,200,25\n3,300,25\n"))

	require.Len(t, dev.samples, 1)
	assert.Equal(t, uint16(100), (<-dev.samples).ADC)
}

func TestParseLine_FirmwareFormat(t *testing.T) {
	line := string(sensor.AppendLine(nil, 1234567890123456, 2048, -10.25))

	got, err := parseLine(strings.TrimSpace(line), DefaultMaxCount)
	require.NoError(t, err)
	assert.Equal(t, int64(1234567890123456), got.Timestamp.UnixMicro())
	assert.Equal(t, uint16(2048), got.ADC)
	assert.Equal(t, float32(-10.25), got.TempC)
}

func TestSerial_RearmAfterClose(t *testing.T) {
	dev := New("test", 0, 4, 0)
	dev.connected = true
	require.NoError(t, dev.Close())

	spentCtx, spent := dev.ctx, dev.samples
	_, ok := <-spent
	assert.False(t, ok, "Close closes the samples channel")

	dev.mu.Lock()
	dev.rearm()
	dev.mu.Unlock()

	assert.NoError(t, dev.ctx.Err())
	assert.Error(t, spentCtx.Err())
	assert.NotEqual(t, spent, dev.samples)

	// A reader left over from the closed connection neither panics on the
	// closed channel nor leaks into the new one.
	dev.readSamples(spentCtx, spent, strings.NewReader("1,100,25\n"))
	assert.Empty(t, dev.samples)

	dev.readSamples(dev.ctx, dev.samples, strings.NewReader("1,100,25\n"))
	require.Len(t, dev.samples, 1)
	assert.Equal(t, uint16(100), (<-dev.samples).ADC)
}

func TestSerial_RearmKeepsLiveConnection(t *testing.T) {
	dev := New("test", 0, 4, 0)
	ctx, ch := dev.ctx, dev.samples

	dev.mu.Lock()
	dev.rearm()
	dev.mu.Unlock()

	assert.Equal(t, ctx, dev.ctx)
	assert.Equal(t, ch, dev.samples)
}

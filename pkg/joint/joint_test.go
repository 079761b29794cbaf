package joint

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrame(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    Frame
		wantErr bool
	}{
		{
			name: "valid frame",
			line: "1234567890123,2048,2051,2040,2048,2055,2047",
			want: Frame{
				Timestamp: time.Unix(0, 1234567890123*1000),
				Genvars:   [6]uint16{2048, 2051, 2040, 2048, 2055, 2047},
			},
		},
		{
			name: "valid frame - extremes",
			line: "1234567890123,0,4095,0,4095,0,4095",
			want: Frame{
				Timestamp: time.Unix(0, 1234567890123*1000),
				Genvars:   [6]uint16{0, 4095, 0, 4095, 0, 4095},
			},
		},
		{
			name:    "invalid - too few fields",
			line:    "1234567890123,1,2,3,4,5",
			wantErr: true,
		},
		{
			name:    "invalid - too many fields",
			line:    "1234567890123,1,2,3,4,5,6,7",
			wantErr: true,
		},
		{
			name:    "invalid - non-numeric timestamp",
			line:    "abc,1,2,3,4,5,6",
			wantErr: true,
		},
		{
			name:    "invalid - non-numeric genvar",
			line:    "1234567890123,1,2,x,4,5,6",
			wantErr: true,
		},
		{
			name:    "invalid - genvar above 12-bit range",
			line:    "1234567890123,1,2,4096,4,5,6",
			wantErr: true,
		},
		{
			name:    "invalid - negative genvar",
			line:    "1234567890123,1,2,-3,4,5,6",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFrame(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSerialNotConnected(t *testing.T) {
	j := NewSerial("/dev/null", 0)

	assert.False(t, j.Streaming())
	_, err := j.Genvars()
	assert.Error(t, err)

	// Closing an unconnected client is a no-op.
	assert.NoError(t, j.Close())
}

func TestSerialDefaults(t *testing.T) {
	j := NewSerial("/dev/ttyACM0", 0)
	assert.Equal(t, DefaultBaudRate, j.baudRate)
	assert.Equal(t, DefaultStaleAfter, j.staleAfter)
}

func TestMock(t *testing.T) {
	m := NewMock()

	assert.True(t, m.Streaming())
	got, err := m.Genvars()
	require.NoError(t, err)
	assert.Equal(t, [6]uint16{}, got)

	m.SetGenvars([6]uint16{1, 2, 3, 4, 5, 6})
	got, err = m.Genvars()
	require.NoError(t, err)
	assert.Equal(t, [6]uint16{1, 2, 3, 4, 5, 6}, got)

	m.SetStreaming(false)
	assert.False(t, m.Streaming())

	m.FailWith(fmt.Errorf("link down"))
	_, err = m.Genvars()
	assert.Error(t, err)

	// New values clear the injected error.
	m.SetGenvars([6]uint16{7, 8, 9, 10, 11, 12})
	_, err = m.Genvars()
	assert.NoError(t, err)
}

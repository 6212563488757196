package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTransportKind(t *testing.T) {
	tests := []struct {
		in   string
		want TransportKind
		ok   bool
	}{
		{"local", TransportLocal, true},
		{"tcp", TransportTCP, true},
		{"unix", TransportUnix, true},
		{"shm", TransportSHM, true},
		{"udp", "", false},
		{"TCP", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTransportKind(tt.in)
			if !tt.ok {
				assert.ErrorIs(t, err, ErrUnknownTransport)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCodecKind(t *testing.T) {
	k, err := ParseCodecKind("protobuf")
	require.NoError(t, err)
	assert.Equal(t, CodecProtobuf, k)

	_, err = ParseCodecKind("json")
	assert.ErrorIs(t, err, ErrUnknownCodec)
	assert.True(t, CodecBinary.Valid())
}

func TestRole_Valid(t *testing.T) {
	assert.True(t, RoleServer.Valid())
	assert.True(t, RoleClient.Valid())
	assert.False(t, Role("peer").Valid())
}

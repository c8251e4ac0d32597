// ABOUTME: Tests for mDNS discovery
// ABOUTME: Tests manager setup and service entry conversion
package discovery

import (
	"net"
	"testing"

	"github.com/hashicorp/mdns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManager(t *testing.T) {
	mgr := NewManager(Config{ServiceName: "Studio", Port: 8928})
	require.NotNil(t, mgr)
	defer mgr.Stop()

	assert.Equal(t, "/multitrack", mgr.config.Path)
	assert.NotNil(t, mgr.Players())
}

func TestStopCancelsContext(t *testing.T) {
	mgr := NewManager(Config{ServiceName: "Studio", Port: 8928})
	mgr.Stop()

	select {
	case <-mgr.ctx.Done():
	default:
		t.Fatal("context not cancelled")
	}
}

func TestEntryToPlayer(t *testing.T) {
	tests := []struct {
		name  string
		entry *mdns.ServiceEntry
		want  *PlayerInfo
	}{
		{
			name: "full entry",
			entry: &mdns.ServiceEntry{
				Name:       "Studio._multitrack._tcp.local.",
				AddrV4:     net.ParseIP("192.168.1.20"),
				Port:       8928,
				InfoFields: []string{"path=/remote"},
			},
			want: &PlayerInfo{Name: "Studio", Host: "192.168.1.20", Port: 8928, Path: "/remote"},
		},
		{
			name: "default path",
			entry: &mdns.ServiceEntry{
				Name:   "Den._multitrack._tcp.local.",
				AddrV4: net.ParseIP("10.0.0.5"),
				Port:   9000,
			},
			want: &PlayerInfo{Name: "Den", Host: "10.0.0.5", Port: 9000, Path: "/multitrack"},
		},
		{
			name:  "no ipv4",
			entry: &mdns.ServiceEntry{Name: "v6only", Port: 1},
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, entryToPlayer(tt.entry))
		})
	}
}

func TestPlayerAddr(t *testing.T) {
	p := &PlayerInfo{Host: "10.0.0.5", Port: 8928}
	assert.Equal(t, "10.0.0.5:8928", p.Addr())
}

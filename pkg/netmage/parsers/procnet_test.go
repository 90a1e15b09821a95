// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package parsers

import (
	"testing"

	"github.com/stratastor/netpanel/pkg/netmage/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProcNetDev(t *testing.T) {
	out := `Inter-|   Receive                                                |  Transmit
 face |bytes    packets errs drop fifo frame compressed multicast|bytes    packets errs drop fifo colls carrier compressed
    lo:  123456     789    0    0    0     0          0         0   123456     789    0    0    0     0       0          0
  eth0: 987654321 654321   2    5    0     0          0      1200 123456789  43210    1    3    0     0       0          0
 bad0: 1 2 3
`
	counters := ParseProcNetDev(out)
	require.Len(t, counters, 2)

	assert.Equal(t, "lo", counters[0].Interface)
	assert.Equal(t, types.InterfaceCounters{
		Interface: "eth0",
		RxBytes:   987654321,
		RxPackets: 654321,
		RxErrors:  2,
		RxDropped: 5,
		TxBytes:   123456789,
		TxPackets: 43210,
		TxErrors:  1,
		TxDropped: 3,
	}, counters[1])
}

func TestParseSockets(t *testing.T) {
	out := `Netid State  Recv-Q Send-Q  Local Address:Port   Peer Address:Port Process
udp   UNCONN 0      0       127.0.0.53%lo:53         0.0.0.0:*
udp   ESTAB  0      0      192.168.1.10:41000    192.168.1.1:53
tcp   LISTEN 0      4096        0.0.0.0:22           0.0.0.0:*
tcp   LISTEN 0      511       127.0.0.1:8042         0.0.0.0:*
tcp   ESTAB  0      36     192.168.1.10:22      192.168.1.50:51234
tcp   TIME-WAIT 0   0      192.168.1.10:8042    192.168.1.50:51240
tcp   ESTAB  0      0         [::1]:8042            [::1]:40000
`
	sockets := ParseSockets(out)
	require.Len(t, sockets, 7)
	assert.Equal(t, types.Socket{
		Netid: "tcp", State: "ESTAB", RecvQ: 0, SendQ: 36,
		Local: "192.168.1.10:22", Peer: "192.168.1.50:51234",
	}, sockets[4])

	counts := CountSockets(sockets)
	assert.Equal(t, types.ConnectionCounts{
		TCPEstablished: 2,
		TCPListening:   2,
		TCPOther:       1,
		UDP:            2,
		Total:          7,
	}, counts)
}

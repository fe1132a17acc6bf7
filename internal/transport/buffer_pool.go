package transport

import "sync"

// maxUDPMessageSize bounds the receive buffer. EDNS(0) can advertise up to
// 65535, but in practice payload sizes stay well under that; 65535 keeps a
// single pool usable for both transports without per-size buckets.
const maxUDPMessageSize = 65535

// bufferPool is a sync.Pool of reusable receive buffers, avoiding a fresh
// allocation on every query's hot path.
var bufferPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, maxUDPMessageSize)
		return &buf
	},
}

// getBuffer returns a pointer to a reusable receive buffer. Callers must
// return it with putBuffer once done.
func getBuffer() *[]byte {
	return bufferPool.Get().(*[]byte) //nolint:forcetypeassert // pool only ever holds *[]byte
}

// putBuffer returns buf to the pool.
func putBuffer(buf *[]byte) {
	bufferPool.Put(buf)
}

// Package muxer lets several producer goroutines interleave output into one
// backing writer, so long as each producer only asks to be spliced in at
// points that are legal for whatever format it's writing (a group boundary,
// a flush point, anything that isn't mid-record).
//
// Each goroutine gets its own buffer from Writer; it writes into that buffer
// freely, then calls RegisterBreakpoint at a safe cut point. Small buffers
// are left in place to accumulate more before they're worth shipping;
// buffers past a size threshold are handed to a background writer goroutine
// that drains the producers' queues into the backing writer one producer at
// a time, each queue in the order its chunks were handed off. RegisterBarrier forces a handoff regardless of size and blocks
// until that goroutine's queued data has actually been written, for call
// sites that need to know their bytes have landed before doing something
// else observable (closing a section, reporting progress).
package muxer

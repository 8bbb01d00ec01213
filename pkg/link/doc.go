// Package link runs the CPU/GPU display protocol over a byte stream.
package link

// The link survives a lossy line: garbage between packets, packets cut
// short, flipped bits. The Scanner walks the stream byte by byte,
// resynchronizing on the sync marker, and only surfaces packets whose
// checksum holds. The Session owns one stream and keeps counters, the
// Client and Receiver sit on top of it for the two roles of the link.
//
// A corrupt or truncated packet never stops a session, it is counted
// and the scanner hunts for the next marker.

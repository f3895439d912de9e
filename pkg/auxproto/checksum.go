// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 gleba

package auxproto

// Checksum computes the 16-bit checksum used by AUX conditioners over
// the given bytes: big-endian word sums accumulated in 32 bits, one
// carry fold, ones' complement. An odd-length input is treated as if
// padded with a single trailing zero byte; the input is not modified.
func Checksum(data []byte) uint16 {
	var sum uint32
	n := len(data)
	for i := 0; i+1 < n; i += 2 {
		sum += uint32(data[i])<<8 | uint32(data[i+1])
	}
	if n%2 == 1 {
		sum += uint32(data[n-1]) << 8
	}
	sum = (sum >> 16) + (sum & 0xFFFF)
	return uint16(^sum)
}

// VerifyChecksum recomputes the checksum over the packet's header and
// body and compares it against the two stored checksum bytes. The
// stored order is high byte first (byte-swapped relative to the
// device's native word layout). Packets shorter than a header never
// verify.
func VerifyChecksum(p *Packet) bool {
	if p.Loaded() < HeaderSize {
		return false
	}
	end := HeaderSize + int(p.BodyLength())
	if p.Loaded() < end+ChecksumSize {
		return false
	}
	sum := Checksum(p.data[:end])
	return p.data[end] == byte(sum>>8) && p.data[end+1] == byte(sum)
}

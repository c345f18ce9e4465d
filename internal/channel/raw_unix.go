//go:build unix

package channel

import "golang.org/x/sys/unix"

// Write issues write(2) until p is consumed, retrying on EINTR and short
// writes.
func (r RawWriter) Write(p []byte) (int, error) {
	written := 0
	for written < len(p) {
		n, err := unix.Write(r.fd, p[written:])
		if n > 0 {
			written += n
		}
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return written, err
		}
		if n == 0 {
			return written, unix.EIO
		}
	}
	return written, nil
}

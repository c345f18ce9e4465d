//go:build !unix

package channel

// Write writes p through the file handle.
func (r RawWriter) Write(p []byte) (int, error) {
	return r.file.Write(p)
}

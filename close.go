package scgo

import "io"

// Close releases the connection. Subsequent Materialize and Append calls
// return ErrClosed. If the store implements io.Closer it is closed too.
// Close is idempotent.
func (c *Connection) Close() error {
	if c == nil {
		return nil
	}
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	if closer, ok := c.store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

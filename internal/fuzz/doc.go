// Package fuzztests holds fuzz harnesses for the front of the pipeline:
// declaration file parsing, resolution and forcing the resulting graph.
// They guard against panics and hangs on arbitrary inputs.
package fuzztests

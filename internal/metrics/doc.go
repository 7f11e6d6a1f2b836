// Package metrics reduces raw per-campaign outreach records into the
// normalized per-client metrics tuple and the read-only portfolio, inbox and
// trend views built on top of it.
//
// Everything here is a pure function of its inputs: no I/O, no clocks, no
// shared state. Absent data contributes zero and never produces an error.
package metrics

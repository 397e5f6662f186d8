/*
Package logrouter tees a byte stream to an on-disk log file as it passes
between two endpoints, without letting a stalled log sink ever block the
consumer on the other end of the pipe.

Three tee formats mirror the three graph.EdgeType values: Text timestamps
each complete line with "[2006-01-02 15:04:05]" (matching the format the
original pipeline stamped onto its stderr subshells via `ts`) and buffers a
trailing partial line until it is completed; Binary writes raw bytes to a
".data" file with no timestamping; None writes raw bytes to a ".log" file,
also untimestamped, for streams whose content isn't known to be textual.

A Tee wraps an io.Writer (the consumer-facing destination) and itself
implements io.Writer: writes are first forwarded to the consumer, then
queued for the log in a small buffered channel. A full queue drops the write
to the log — tracked via metrics.LogTeeDroppedTotal — rather than block.
*/
package logrouter

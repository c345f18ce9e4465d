// Package logging writes termout's own output: labelled product log lines
// and internal diagnostics.
//
// # Product logger
//
// [Logger] renders a coloured level sticker ("[ERROR]", or "❌" when emoji
// are allowed) followed by the message values, composes the line in a
// bounded scratch buffer and hands it to a [Sink] as one payload. The sink
// wraps a channel from the registry, so lines from concurrent goroutines
// never interleave. While a line is rendered the terminal context output is
// pointed at the sink, so styles are dropped for files and buffers.
//
//	sink, err := logging.OpenSink(ctx, channel.Default(), channel.Stdout, "")
//	if err != nil {
//	    return err
//	}
//	log := logging.New(cell.NewRenderer(ctx, 0), sink)
//	defer log.Close()
//
//	log.Info("rendered", 3, "fields")
//	defer log.Track("render")()
//
// Deferred warnings recorded on the context during rendering are written by
// [Logger.FlushWarnings] and, on Close, to stderr.
//
// # Diagnostics
//
// [Diag] wraps log/slog with a JSON handler. It receives channel contention
// and failure events and is written to the --debug-log file through a
// [RotatingWriter]. [ReadEntries], [FilterEntries] and [ExportEntries] read
// the file back.
//
// # Thread Safety
//
// Logger, Sink, Diag and RotatingWriter are safe for concurrent use. Timer
// is not.
package logging

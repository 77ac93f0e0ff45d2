// Package audit delivers security audit events asynchronously.
//
// A [Dispatcher] buffers events and hands them to a [Sink] from one
// goroutine. Sinks are provided for structured logging ([SlogSink]), JSON
// lines ([JSONWriterSink]), channels ([ChannelSink]) and fan-out
// ([MultiSink]).
//
// The package does not decide which events exist or what they contain; the
// engine and the flows do. It must not import the root package or any sibling
// internal package.
package audit

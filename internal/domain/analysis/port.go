package analysis

import "context"

// Producer port: anything that can turn an input into a RawAnalysis (the AI
// provider, a barcode lookup, a third-party nutrition database, ...). The
// pipeline treats every producer failure uniformly and never caches it.
type Producer interface {
	Produce(ctx context.Context) (RawAnalysis, error)
}

// ProducerFunc adapts a closure to the Producer port.
type ProducerFunc func(ctx context.Context) (RawAnalysis, error)

func (f ProducerFunc) Produce(ctx context.Context) (RawAnalysis, error) { return f(ctx) }

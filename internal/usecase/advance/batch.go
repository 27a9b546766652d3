package advance

// BatchFailure pairs a rejected input with the reason it was rejected.
type BatchFailure[In any] struct {
	Input In
	Err   error
}

// BatchResult is the outcome of a batch mutation. Every item is attempted;
// per-item problems land in Failed instead of aborting the batch.
type BatchResult[In, Out any] struct {
	Succeeded []Out
	Failed    []BatchFailure[In]
}

func (b *BatchResult[In, Out]) Ok(out Out) { b.Succeeded = append(b.Succeeded, out) }

func (b *BatchResult[In, Out]) Fail(in In, err error) {
	b.Failed = append(b.Failed, BatchFailure[In]{Input: in, Err: err})
}

func (b *BatchResult[In, Out]) Total() int { return len(b.Succeeded) + len(b.Failed) }

// itemErrors flattens failures into the wire shape, keyed by property.
func itemErrors[In any](failed []BatchFailure[In], key func(In) string) []ItemError {
	out := make([]ItemError, 0, len(failed))
	for _, f := range failed {
		out = append(out, ItemError{PropertyID: key(f.Input), Error: f.Err.Error()})
	}
	return out
}

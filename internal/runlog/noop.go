package runlog

import "context"

// NoopRecorder is a no-op implementation used when RUNLOG_PATH is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) Record(_ context.Context, _ Entry) error { return nil }
func (n *NoopRecorder) Recent(_ context.Context, _ string, _ int) ([]Entry, error) {
	return nil, nil
}
func (n *NoopRecorder) Close() error { return nil }

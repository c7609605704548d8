package contract

import (
	"context"
	"image"
	"time"

	"github.com/huangsam/reddot/schema"
	"github.com/stretchr/testify/mock"
)

// MockFrameDecoder is a mock implementation of FrameDecoder for testing.
// The first return value configured with On(...).Return is the []image.Image handed to the visitor.
type MockFrameDecoder struct {
	mock.Mock
}

var _ FrameDecoder = &MockFrameDecoder{} // Compile-time check

// DecodeFrames implements the FrameDecoder interface.
func (m *MockFrameDecoder) DecodeFrames(ctx context.Context, path string, visit FrameVisitor) (int, error) {
	args := m.Called(ctx, path, visit)
	frames, _ := args.Get(0).([]image.Image)
	for i, frame := range frames {
		if err := visit(i, frame); err != nil {
			return i, err
		}
	}
	return len(frames), args.Error(1)
}

// MockResultWriter is a mock implementation of ResultWriter for testing.
type MockResultWriter struct {
	mock.Mock
}

var _ ResultWriter = &MockResultWriter{} // Compile-time check

// WriteSummary implements the ResultWriter interface.
func (m *MockResultWriter) WriteSummary(path string, rows []schema.SummaryRow) error {
	args := m.Called(path, rows)
	return args.Error(0)
}

// WriteRun implements the ResultWriter interface.
func (m *MockResultWriter) WriteRun(result *schema.RunResult, cfg *Config, duration time.Duration) error {
	args := m.Called(result, cfg, duration)
	return args.Error(0)
}

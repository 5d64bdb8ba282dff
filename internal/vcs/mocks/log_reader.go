// Package mocks provides testify mocks for the vcs interfaces.
package mocks

import (
	"context"
	"io"
	"strings"

	"github.com/panbanda/gitpulse/pkg/analyzer"
	"github.com/stretchr/testify/mock"
)

// LogReader is a mock vcs.LogReader.
type LogReader struct {
	mock.Mock
}

// NewLogReader creates a mock that asserts its expectations when the test ends.
func NewLogReader(t interface {
	mock.TestingT
	Cleanup(func())
}) *LogReader {
	m := &LogReader{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func reader(args mock.Arguments) (io.Reader, error) {
	var r io.Reader
	switch v := args.Get(0).(type) {
	case string:
		r = strings.NewReader(v)
	case io.Reader:
		r = v
	}
	return r, args.Error(1)
}

// Log mocks vcs.LogReader.Log. A string return value is wrapped in a reader.
func (m *LogReader) Log(ctx context.Context, window analyzer.Window) (io.Reader, error) {
	return reader(m.Called(ctx, window))
}

// Tags mocks vcs.LogReader.Tags.
func (m *LogReader) Tags(ctx context.Context) (io.Reader, error) {
	return reader(m.Called(ctx))
}

// Branches mocks vcs.LogReader.Branches.
func (m *LogReader) Branches(ctx context.Context) (io.Reader, error) {
	return reader(m.Called(ctx))
}

// Contributors mocks vcs.LogReader.Contributors.
func (m *LogReader) Contributors(ctx context.Context, window analyzer.Window) (io.Reader, error) {
	return reader(m.Called(ctx, window))
}

// CurrentBranch mocks vcs.LogReader.CurrentBranch.
func (m *LogReader) CurrentBranch() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

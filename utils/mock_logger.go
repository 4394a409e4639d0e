package utils

import "github.com/stretchr/testify/mock"

// MockLogger records calls through testify's mock.Mock.
// Tests that do not care about a level should register it with .Maybe().
type MockLogger struct {
	mock.Mock
	WarnCallCount  int
	ErrorCallCount int
	LastWarning    string
}

func (m *MockLogger) Debug(msg string, keysAndValues ...any) {
	m.Called(msg, keysAndValues)
}

func (m *MockLogger) Info(msg string, keysAndValues ...any) {
	m.Called(msg, keysAndValues)
}

func (m *MockLogger) Warn(msg string, keysAndValues ...any) {
	m.WarnCallCount++
	m.LastWarning = msg
	m.Called(msg, keysAndValues)
}

func (m *MockLogger) Error(msg string, keysAndValues ...any) {
	m.ErrorCallCount++
	m.Called(msg, keysAndValues)
}

func (m *MockLogger) SetLevel(level LogLevel) {
	m.Called(level)
}

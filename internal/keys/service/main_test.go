package service

import (
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	// Goroutines started by package init, such as KMS driver registration, are not leaks.
	goleak.VerifyTestMain(m, goleak.IgnoreCurrent())
}

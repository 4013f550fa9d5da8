//go:build tools
// +build tools

// Package tools pins the code generators run by go generate (mockgen for
// the mocks package) so go.mod and go.sum track them.
package tools

import (
	_ "go.uber.org/mock/mockgen"
)

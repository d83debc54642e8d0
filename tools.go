//go:build tools

// Package tools pins development tool dependencies.
// Nothing listed here ships in the batch-planner binary.
package tools

import (
// Lint and formatting tools (added via go mod tidy when network is stable)
// _ "github.com/golangci/golangci-lint/cmd/golangci-lint"
// _ "github.com/daixiang0/gci"
// _ "mvdan.cc/gofumpt"
)

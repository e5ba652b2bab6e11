// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package orchestrator

import (
	"os"
	"os/exec"
	"strings"
	"sync"
)

// Binary names.
const (
	binGo   = "go"
	binLint = "golangci-lint"
)

var goBinOnce sync.Once

// ensureGoBinOnPath puts GOBIN (or GOPATH/bin) on PATH so exec.LookPath
// finds Go-installed tools like golangci-lint.
func ensureGoBinOnPath() {
	goBinOnce.Do(func() {
		if gobin, err := exec.Command(binGo, "env", "GOBIN").Output(); err == nil {
			if dir := strings.TrimSpace(string(gobin)); dir != "" {
				os.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
				return
			}
		}
		if gopath, err := exec.Command(binGo, "env", "GOPATH").Output(); err == nil {
			if dir := strings.TrimSpace(string(gopath)); dir != "" {
				os.Setenv("PATH", dir+"/bin"+string(os.PathListSeparator)+os.Getenv("PATH"))
			}
		}
	})
}

// runTool runs a development tool with its output on the terminal.
func runTool(name string, args ...string) error {
	ensureGoBinOnPath()
	cmd := exec.Command(name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

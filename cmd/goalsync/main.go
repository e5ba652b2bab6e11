// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Command goalsync keeps project goal documents and their GitHub tracking
// issues in sync.
package main

import (
	"os"
)

var version = "dev"

func main() {
	if err := Execute(version); err != nil {
		os.Exit(1)
	}
}

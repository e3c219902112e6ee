/*
Package bustub is an interactive shell for the BusTub relational database
engine compiled to WebAssembly.

The engine is a string-in/string-out module: it receives one SQL statement or
meta command and writes a prompt and an output string into caller-provided
memory. This package loads that module, marshals every call through a pool of
fixed-size buffers and turns the answers into a transcript a terminal, an HTTP
client or an MCP agent can render.

# Architecture

	Session (pkg/session)   line accumulation, history, transcript
	   |
	Bridge (pkg/bridge)     lifecycle, marshaling, fallback
	   |
	Arena (pkg/arena)       buffers inside the module's linear memory
	   |
	Runtime (internal/adapters/wasm)   wazero + WASI

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/bustub-shell"
	)

	func main() {
		shell, err := bustub.New()
		if err != nil {
			log.Fatal(err)
		}
		defer shell.Close(context.Background())

		ctx := context.Background()
		s := shell.Session()
		if !s.Initialize(ctx) {
			log.Fatal(shell.Bridge().Cause())
		}

		if _, err := s.Submit(ctx, "SELECT * FROM __mock_table_1;"); err != nil {
			log.Fatal(err)
		}
		for _, line := range s.Transcript() {
			fmt.Println(line.Text)
		}
	}

Engine failures never surface as Go errors from Submit; they are recorded in
the transcript and reflected in Shell.Status.
*/
package bustub

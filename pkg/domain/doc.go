/*
Package domain contains the core domain models of the BusTub shell.

It defines the values that flow between the session layer and the engine bridge.
This package is kept pure and free of external dependencies like I/O or the
WebAssembly runtime, following Hexagonal Architecture principles.

# Key Entities

  - EngineResult: The decoded outcome of one call into the execution engine.
  - Status: The lifecycle of the engine bridge (Unloaded, Loading, Ready, Fallback).
  - SessionLine: One entry of the append-only transcript shown to the user.
*/
package domain

/*
Package ports defines the driven ports (interfaces) of the BusTub shell.

These interfaces decouple the session layer and the adapters from the concrete
engine binding, allowing the shell to run against a WebAssembly build of the
engine, an in-memory fake, or the fallback stub.

# Key Interfaces

  - Engine: The narrow initialize/execute surface consumed by sessions and adapters.
  - Runtime: Loads the foreign engine and returns a ready Module.
  - Module: The exported functions and linear memory of a loaded engine.
  - ArtifactSource: Fetches the engine binary (file, URL).
*/
package ports

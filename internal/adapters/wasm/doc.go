// Package wasm loads the BusTub engine as a WebAssembly module with wazero.
//
// Loading happens in two phases. The artifact is fetched from a file or an
// http(s) URL, compiled and instantiated with WASI preview1. The module is
// ready once instantiation (including its _initialize start function, when
// present) has returned and every required export has been resolved; only
// then is it handed to the caller.
package wasm

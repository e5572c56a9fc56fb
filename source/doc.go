// Package source resolves shard references to open byte streams.
//
// A reference is `<scheme>:<rest>`, a bare local path, or the literal `-`
// for the process's own stdio. Built-in schemes: file, pipe, http, https.
// Dispatch goes through an explicit Registry owned by the caller, so
// additional schemes can be registered (or built-ins overridden) before a
// run; tests construct isolated registries.
//
// http and https are sugar over pipe: the URL is handed to an external
// retrieval command, never an in-process HTTP client. Every stream is a
// scoped resource: closing it releases the descriptor and, for pipes,
// terminates and reaps the spawned process.
package source

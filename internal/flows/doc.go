// Package flows contains pure-function orchestrators for every Engine operation.
//
// Each flow function (RunSignup, RunSignin, RunResolve, RunLogout,
// RunUpdateName) accepts a typed dependency struct and returns results
// without side effects beyond those dependencies. The Engine supplies its
// stores, hasher, token manager, metrics and audit hooks as closures.
//
// # Architecture boundaries
//
// Flow functions coordinate calls to the user store, session store, password
// hasher, token manager, audit dispatcher and metrics. They do NOT own any of
// these resources; ownership stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goCred (to avoid import cycles).
//   - Perform I/O directly; all I/O is mediated through dependency closures.
package flows

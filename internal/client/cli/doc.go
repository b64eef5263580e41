// Package cli implements ev, the EternalVault command-line client.
//
// Commands
//
//	ev register            create an account
//	ev login               sign in; tokens are kept in the local database
//	ev logout              revoke the session and forget it locally
//	ev dashboard           welcome, stats and the vault list
//	ev vault <id>          one vault in detail
//	ev create              walk the vault wizard interactively
//	ev attach <path>...    add files to the current draft
//	ev download <vault-id> save a vault's files locally
//	ev status              server health and who is signed in
//
// While `ev create` runs, a watcher polls the gRPC health endpoint and
// reports when the server goes away or comes back.
package cli

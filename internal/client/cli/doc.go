// Package cli is the interactive faculty review command-line client.
//
// Commands can be run one at a time (facultyreview signin) or from the REPL
// that starts when no command is given. The session token returned by
// signin is stored on disk and sent as a bearer token on later calls.
//
// Commands:
//   - signup, verify: register with an emailed one-time code
//   - signin, logout, me
//   - faculty [-d department] [name]: search; a single match is shown in full
//   - top: the three most reviewed faculty
//   - review add|edit <facultyID>, review delete <facultyID> <reviewID>
//   - avatar <file>: upload a review image and remember its URL
package cli

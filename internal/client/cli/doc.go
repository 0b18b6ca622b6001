// Package cli provides the TaskKeeper command-line client.
//
// Commands can be run one at a time ("taskkeeper lists") or from an
// interactive REPL started when no command is given. The bearer token
// returned by register and login is stored in a file so that later
// invocations reuse it.
//
// Commands:
//   - register, login, logout, me
//   - lists, addlist
//   - tasks [list_id], addtask, done <task_id>
package cli

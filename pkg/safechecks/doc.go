// Package safechecks is the library API of a SafeChecks device: it opens
// the local workspace, wires the record builder, draft engine, task
// scheduler and sync engine, and exposes the operations the CLI runs.
//
// # Concurrency Safety
//
//   - A Client is safe for concurrent use. The local store serializes every
//     read-modify-write and the sync engine guards its own pull and retry.
//
//   - Two Clients for the SAME workspace in one process must not be open at
//     once when the sqlite store driver is used.
//
//   - Pushes happen in the background. Close waits for them to finish, so
//     always Close a Client before the process exits.
//
// # Usage
//
//	c, err := safechecks.Open(".")
//	defer c.Close()
//
//	c.Tick(ctx, model.TypeOpening, "fridge_temps_ok")
//	rec, err := c.SubmitChecklist(ctx, model.TypeOpening, safechecks.SubmitOptions{SignedBy: "Sam"})
//
//	ticks, stop := syncer.Ticker(c.Config().Sync.PullInterval)
//	defer stop()
//	c.Sync().Run(ctx, ticks)
package safechecks

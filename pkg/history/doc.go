// Package history coordinates location changes between a location store and
// the consumers that observe it.
//
// A Store is the collaborator that owns the actual history stack (a browser
// bridge, a remote client, or the in-memory MemoryHistory). The Coordinator
// wraps one store and gives every consumer the same view of it:
//
//   - exactly one upstream Store.Listen subscription exists while at least one
//     consumer is subscribed, however many consumers there are
//   - upstream changes are delivered through a low-priority Scheduler in the
//     order they happened, with consecutive duplicates (same Key) dropped
//   - transition-complete hooks fire after a change has been committed
//
// Navigations return a Handle, a cancellable completion token:
//
//	h := coord.Navigate(ctx, "/users/7", history.WithReplace())
//	h.Then(func() { spinner.Stop() }, func(err error) { toast.Show(err) })
//	...
//	h.Cancel() // on unmount; callbacks above will never run
//
// Cancelling a handle never aborts a transition the store has already
// committed; it only suppresses this handle's reaction to it.
//
// The coordinator is handed to consumers through a context.Context:
//
//	ctx = history.NewContext(ctx, coord)
//	coord, ok := history.FromContext(ctx)
package history

// Package trigger provides the explicit emit→dispatch handoff: an emitter
// wakes dispatchers through a Trigger instead of relying on a shared
// runtime scheduling a deferred callback.
//
// The signal carries no payload. Deliveries are already durable in the
// store when Wake fires; the trigger only shortens the dispatcher's wait,
// and a lost wakeup costs at most one poll interval.
//
//   - Local: a one-slot in-process channel for single-binary deployments.
//   - Redis: pub/sub fan-out so any number of dispatcher instances can be
//     nudged by any number of emitters.
package trigger

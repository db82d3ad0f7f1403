// Package host carries knob state to the embedding host.
//
// A [Bridge] observes one knob and turns every change into exactly one
// [Host.SetComponentValue] call. Pushes are synchronous and fire-and-forget:
// hosts never report errors back to the engine, and nothing is retried,
// batched or coalesced.
//
// Host implementations:
//
//   - [Recorder]: keeps every push in memory (sessions, replay, tests)
//   - [LogHost]: writes pushes to a slog.Logger
//   - [Hub]: fans pushes out to websocket clients
//   - [Multi]: forwards to several hosts in order
//
// [Listen] is the client side of the websocket channel.
package host

// Package server provides the local push channel for configuration updates and engine status.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] runs in the order it was added; the first added is the outermost wrapper.
//
// The [BasicRouter] implementation registers "METHOD path" patterns on [http.ServeMux].
//
// # Endpoints
//
//   - POST /config accepts a full or partial configuration as JSON and answers {"status":"ok"}
//   - GET /status returns the engine snapshot
//   - GET /ws upgrades to a WebSocket that accepts {"action":"init","config":{...}} messages,
//     answers each with {"status":"ok"}, and streams engine events
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server

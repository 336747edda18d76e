// Package bindings turns declarative config entries into live engine hooks:
// schedules become heartbeat or command actions, reactions become filesystem
// triggers with command callbacks. It also keeps the id-to-name mapping the
// journal needs to label events.
package bindings

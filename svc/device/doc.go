// Package device is the device registry: it persists browser push
// subscriptions per (tenant app, external user) pair and resolves the
// recipient set for a send call. One active registration exists per pair;
// re-registering replaces the descriptor, unregistering and transport-level
// "gone" reports deactivate it.
package device

// Package push is the notification fan-out engine. One Send call creates
// the notification record, resolves the recipient device set, delivers to
// every device through the push transport with bounded concurrency, appends
// exactly one delivery log entry per device and deactivates subscriptions
// the transport reports gone. Per-device failures never abort the batch.
package push

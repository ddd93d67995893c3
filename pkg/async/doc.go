// Package async provides a minimal generic Future for fire-and-forget side
// work. The fan-out engine uses it to deactivate dead subscriptions without
// blocking the delivery barrier.
package async

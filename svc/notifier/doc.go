// Package notifier is a secondary consumer of the fan-out engine: it pushes
// operational events to operator devices through a dedicated internal tenant
// app. Delivery failures never break the flow that triggered the alert.
package notifier

// Package webpush is the push transport adapter: it delivers one payload to
// one browser subscription over the Web Push protocol (VAPID) and classifies
// every failure as Gone, Rejected or Transient. The fan-out engine depends
// only on the Transport interface; the concrete Client wraps
// github.com/SherClockHolmes/webpush-go.
package webpush

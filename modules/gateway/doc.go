// Package gateway exposes the push service over HTTP.
//
// It carries two route groups with different trust levels. The /push group
// is server to server: tenants authenticate with their public app id and
// secret key to dispatch notifications and read delivery history. The /sdk
// group is called directly by browsers running the client SDK: those
// endpoints identify the tenant by public app id alone, since the secret
// key must never reach an end user's machine.
package gateway

// Package resources exposes one facade per Token Management API resource
// family. Each method maps to exactly one gateway call with a fixed path,
// passes caller fields through unchanged, and unwraps the response's data
// field (or the whole body when data is absent). Delete methods return the
// whole body.
package resources

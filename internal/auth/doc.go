// Package auth verifies operator identity for the daemon's gRPC and HTTP
// surfaces.
//
// Operators present HS256 JWTs whose "sub" claim is their email. A token only
// grants access when the subject is also in the configured operator set.
// The same signer issues short-lived download tokens for media blobs.
package auth

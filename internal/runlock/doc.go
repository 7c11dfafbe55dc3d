// Package runlock keeps two mediasort processes from organizing into the
// same destination at once, using a flock file per destination root.
package runlock

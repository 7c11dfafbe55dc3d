// Package deps locates the external binaries mediasort shells out to.
package deps

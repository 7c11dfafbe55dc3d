// Package scan discovers candidate files in a source tree.
package scan

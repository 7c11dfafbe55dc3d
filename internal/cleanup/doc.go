// Package cleanup prunes directories left empty after files were moved out.
package cleanup

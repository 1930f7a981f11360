// Package viz renders runs and reports for the terminal.
package viz

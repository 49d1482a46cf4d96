// Package utils provides loose value conversions for decoded event payloads.
package utils

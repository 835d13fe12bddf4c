// ABOUTME: Version and product identity constants
// ABOUTME: Used in the stream handshake source info
package version

const (
	// Version is the client software version
	Version = "0.1.0"

	// Product is the client product name
	Product = "Sales Trainer Voice Client"

	// Manufacturer identifies who ships this client
	Manufacturer = "MoonAI"

	// Source identifies this client on the wire
	Source = "salestrainer-go"
)

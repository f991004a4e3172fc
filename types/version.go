// Package types holds values shared by every monochrome component.
package types

// Version is the canonical project version, reported by the CLI and sent
// as the client name in capture sessions.
const Version = "0.4.0"

// ClientName identifies this client in logs and captured sessions.
const ClientName = "monochrome-go/" + Version

package models

// Capabilities reports which optional features are usable in this process.
// It is resolved once at startup.
type Capabilities struct {
	Voice   bool `json:"voice"`
	AI      bool `json:"ai"`
	QR      bool `json:"qr"`
	Search  bool `json:"search"`
	Metrics bool `json:"metrics"`
}

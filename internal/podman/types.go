package podman

import "time"

// Report types mirror the libpod secret API payloads.

type SecretDriverSpec struct {
	Name    string            `json:"Name"`
	Options map[string]string `json:"Options,omitempty"`
}

type SecretSpec struct {
	Name   string            `json:"Name"`
	Driver SecretDriverSpec  `json:"Driver"`
	Labels map[string]string `json:"Labels,omitempty"`
}

// SecretInfoReport is returned by both the list and inspect endpoints.
type SecretInfoReport struct {
	ID        string     `json:"ID"`
	CreatedAt time.Time  `json:"CreatedAt"`
	UpdatedAt time.Time  `json:"UpdatedAt"`
	Spec      SecretSpec `json:"Spec"`
}

type SecretCreateReport struct {
	ID string `json:"ID"`
}

type VersionReport struct {
	Version    string `json:"Version"`
	APIVersion string `json:"ApiVersion"`
}

// errorReport is the libpod error body: {"cause": ..., "message": ..., "response": ...}
type errorReport struct {
	Cause    string `json:"cause"`
	Message  string `json:"message"`
	Response int    `json:"response"`
}

package utils

// Health represents the health status of the service.
type Health struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Message string `json:"message"`
}

// VersionObject holds the components of a version string.
type VersionObject struct {
	Major     string `json:"major"`
	Minor     string `json:"minor"`
	Patch     string `json:"patch"`
	Branch    string `json:"branch"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	Arch      string `json:"arch"`
	BuildHash string `json:"build_hash,omitempty"`
}

// Version is the display and structured form of the running build.
type Version struct {
	Tag string        `json:"tag,omitempty"`
	Str string        `json:"str"`
	Obj VersionObject `json:"obj"`
}

// ServiceReport is the body of the /service endpoint.
type ServiceReport struct {
	Version Version                `json:"version"`
	Health  Health                 `json:"health"`
	Metrics map[string]interface{} `json:"metrics"`
	Config  map[string]interface{} `json:"config,omitempty"`
}

package config

// OtelConfig configures OTLP trace export. Traces are shipped to a local
// collector agent over OTLP HTTP; the agent handles authentication and
// forwarding, so no API key lives in this process.
type OtelConfig struct {
	// AgentHost is the host:port of the local OTLP HTTP endpoint.
	AgentHost string `mapstructure:"agent_host" json:"agent_host"`

	// Environment tags exported spans (dev, staging, prod).
	Environment string `mapstructure:"environment" json:"environment"`

	// ServiceName identifies this service in traces.
	ServiceName string `mapstructure:"service_name" json:"service_name"`
}

package config

// AuditKafka configures the audit event publisher. Leaving Addresses empty
// disables audit publishing entirely.
type AuditKafka struct {
	Addresses []string `env:"AUDIT_KAFKA_ADDRESSES" envSeparator:","`
	ClientID  string   `env:"AUDIT_KAFKA_CLIENT_ID" envDefault:"catalog-panel"`
}

// Enabled reports whether audit publishing is configured.
func (c AuditKafka) Enabled() bool {
	return len(c.Addresses) > 0
}

package bootstrap

import "github.com/william251082/fileupload/config"

// Config is the constraint for application configuration types. Any struct
// embedding config.ServiceConfig with `mapstructure:",squash"` satisfies it
// through promoted methods, provided its own ApplyDefaults and Validate call
// the embedded ones.
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}

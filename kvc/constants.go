package kvc

import "time"

const (
	DefaultHost  = "127.0.0.1"
	DefaultPort  = 8080
	DefaultGroup = "default"

	StyleJson = "json"
	AlphaOk   = "Ok"

	ExecutePath = "execute"

	// re-authentications allowed per Execute call
	maxAuthRetries = 1
)

var defaultOptions = OptionsSt{
	Host:  DefaultHost,
	Port:  DefaultPort,
	Group: DefaultGroup,
}

// NoExpiration keeps a value until it is deleted or the group is cleaned.
const NoExpiration time.Duration = 0

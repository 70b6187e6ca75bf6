// Package configs provides embedded default configuration files.
package configs

import _ "embed"

// Embedded configuration templates for the `craftchat config` command.

//go:embed config.yml
var DefaultConfigBytes []byte

//go:embed config-online.yml
var OnlineConfigBytes []byte

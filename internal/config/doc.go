// Package config loads pregen configuration files.
//
// A configuration file is YAML. Unknown keys are rejected, and the decoded
// values are checked against an embedded CUE schema before use. Keys left
// out of the file keep their defaults, and a missing file yields Default().
//
//	factory_owner: invoke/LambdaMetafactory
//	entry_method: create
//	workers: 8
//	ledger: .pregen/ledger.db
//	log_level: info
package config

// Package config loads env-tagged configuration structs from the process
// environment, with .env support for local development. Every package in
// this module declares its own Config struct; this is the one place that
// parses them.
package config

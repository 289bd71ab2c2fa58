// Package config loads bindery's settings.
//
// Values come from, in order of precedence: command-line flags the user
// set, BINDERY_* environment variables, the TOML config file, and the
// built-in defaults. A missing config file is not an error.
//
// # Keys
//
//	base_url       = "http://127.0.0.1:8084"
//	api_prefix     = "/request/api"
//	enqueue_method = "GET"            # or "POST"
//	log_file       = "~/.local/state/bindery/bindery.log"
//	log_level      = "info"
//	prefs_path     = "~/.config/bindery/prefs.toml"
//
// The default file is ~/.config/bindery/config.toml. Paths starting with
// "~" are expanded against the home directory; blank values fall back to
// the defaults.
package config

// Package config loads promptdiscovery configuration.
//
// Configuration comes from, in increasing precedence: built-in defaults, a
// YAML file, and PROMPTDISCOVERY_* environment variables. [LoadDotEnv] can
// seed the environment from a .env file first.
//
//	server:
//	  addr: ":8080"
//	corpus:
//	  path: prompts.jsonl
//	search:
//	  analyzer: en
//	  synonyms:
//	    - [docs, documentation]
//	history:
//	  backend: bolt
//	  path: data/history.db
//	logging:
//	  level: debug
package config

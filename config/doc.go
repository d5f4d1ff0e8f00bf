// Package config loads the YAML configuration of the scenegraph CLI.
//
// Files are decoded strictly on top of Default, so a file only needs the
// keys it changes and misspelt keys are rejected:
//
//	log:
//	  level: debug
//	finder:
//	  backend: flat
//	connectors:
//	  - parent: places
//	    children: [objects]
//	  - parent: rooms
//	    children: [places, agents]
//	snapshot:
//	  store: local
//	  path: ./snapshots
//	  compression: lz4
package config

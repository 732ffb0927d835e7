// Package startup handles configuration loading and startup logging.
//
// Configuration comes from environment variables, with search roots
// optionally listed in a YAML file pointed to by ROOTS_FILE. The database
// directory must be writable (the result cache lives there); search roots
// are only warned about when unreachable, since a NAS share may come up
// after the service does.
package startup

// Package config describes persistence units: a named unit, the property bag
// that overrides its definition, and the typed settings a session factory is
// built from.
//
// Unit definitions live in a YAML catalog:
//
//	units:
//	  orders-unit:
//	    driver: postgres
//	    dsn: postgres://orders@localhost:5432/orders?sslmode=disable
//	    max_open_conns: 16
//	    conn_max_lifetime: 30m
//
// Properties passed to NewUnit win over the catalog, so a unit can also be
// described entirely by its properties without any catalog file.
package config

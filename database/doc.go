// Package database opens the GORM connection that backs article and
// reference metadata.
//
// The driver is chosen from Config.Driver ("sqlite" or "postgres"). Schema
// changes ship as versioned SQL files applied with golang-migrate; see the
// schema package and the migrate command.
package database

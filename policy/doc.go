// Package policy provides optional declarative rules that can be applied on
// top of a running Fluxor engine – for example to require human approval for
// selected tasks or to enforce execution constraints.
package policy

package source

import (
	"fmt"

	"github.com/tessro/linkctl/internal/core"
	lerrors "github.com/tessro/linkctl/internal/errors"
)

// Resolve returns the string to send to the device to select the input named
// name, given the device's live input list. It returns an ErrNotFound error
// when neither the direct table nor a unique structural match applies.
//
// The returned value is always either a table identifier or a verbatim entry
// of inputs; display names themselves are never returned.
func (v *Vocabulary) Resolve(name string, inputs []string) (string, error) {
	if id, ok := v.direct(name, inputs); ok {
		return id, nil
	}
	if id, ok := structural(name, inputs); ok {
		return id, nil
	}
	return "", lerrors.NotFound("set source", fmt.Sprintf("no input matches %q", name))
}

// direct applies the table when the device advertises the mapped identifier,
// or when the device reports no input list at all.
func (v *Vocabulary) direct(name string, inputs []string) (string, bool) {
	e, ok := v.byName[name]
	if !ok {
		return "", false
	}
	if len(inputs) == 0 {
		return e.Identifier, true
	}
	key := Canonical(e.Identifier)
	for _, in := range inputs {
		if Canonical(in) == key {
			return e.Identifier, true
		}
	}
	return "", false
}

// structural matches name against inputs after canonicalizing both sides.
// Exactly one live entry must match.
func structural(name string, inputs []string) (string, bool) {
	key := Canonical(name)
	if key == "" {
		return "", false
	}
	var match string
	count := 0
	for _, in := range inputs {
		if Canonical(in) == key {
			match = in
			count++
		}
	}
	if count != 1 {
		return "", false
	}
	return match, true
}

// Identify builds a SourceIdentity for an identifier the device reported.
// The display name is empty when the identifier is not in the vocabulary.
func (v *Vocabulary) Identify(identifier string) core.SourceIdentity {
	id := core.SourceIdentity{Identifier: identifier}
	key := Canonical(identifier)
	if key == "" {
		return id
	}
	for _, e := range v.entries {
		if Canonical(e.Identifier) == key {
			id.DisplayName = e.DisplayName
			return id
		}
	}
	for _, e := range v.entries {
		if Canonical(e.DisplayName) == key {
			id.DisplayName = e.DisplayName
			return id
		}
	}
	return id
}

// IsQueueOwning returns true if the source's track list lives on the device.
func (v *Vocabulary) IsQueueOwning(id core.SourceIdentity) bool {
	if v.queueOwning[Canonical(id.Identifier)] {
		return true
	}
	return id.DisplayName != "" && v.queueOwning[Canonical(id.DisplayName)]
}

// Available returns the display names whose inputs the device advertises, in
// vocabulary order. A nil input list yields every name.
func (v *Vocabulary) Available(inputs []string) []string {
	if inputs == nil {
		return v.Names()
	}
	var names []string
	for _, e := range v.entries {
		if _, err := v.Resolve(e.DisplayName, inputs); err == nil {
			names = append(names, e.DisplayName)
		}
	}
	return names
}

// Resolve resolves name against the locked vocabulary.
func Resolve(name string, inputs []string) (string, error) {
	return locked.Resolve(name, inputs)
}

// Identify identifies a reported source against the locked vocabulary.
func Identify(identifier string) core.SourceIdentity {
	return locked.Identify(identifier)
}

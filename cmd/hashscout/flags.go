package main

import (
	"github.com/spf13/pflag"

	"github.com/sivchari/hashscout/internal/hasher"
)

// algorithmValue is the -a/--algorithm flag. Known names are stored in
// canonical form; unknown names are kept verbatim so validation reports
// them together with the rest of the configuration.
type algorithmValue string

var _ pflag.Value = (*algorithmValue)(nil)

func (a *algorithmValue) String() string {
	return string(*a)
}

func (a *algorithmValue) Set(name string) error {
	if algorithm, err := hasher.ParseAlgorithm(name); err == nil {
		*a = algorithmValue(algorithm)

		return nil
	}

	*a = algorithmValue(name)

	return nil
}

func (a *algorithmValue) Type() string {
	return "name"
}

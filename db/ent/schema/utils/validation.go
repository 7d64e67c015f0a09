package utils

import (
	"errors"
	"fmt"
	"regexp"
)

func EnumValidator(allowed ...string) func(string) error {
	set := map[string]struct{}{}
	for _, a := range allowed {
		set[a] = struct{}{}
	}
	return func(s string) error {
		if _, ok := set[s]; ok {
			return nil
		}
		return errors.New("validation failed")
	}
}

var reISODate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ISODate accepts YYYY-MM-DD strings.
func ISODate(s string) error {
	if reISODate.MatchString(s) {
		return nil
	}
	return fmt.Errorf("date %q is not YYYY-MM-DD", s)
}

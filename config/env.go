package config

import (
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// environmentParsers extend the parsers of the env library: durations
// also accept plain seconds, the items of string lists are trimmed
// and empty ones dropped.
var environmentParsers = map[reflect.Type]env.ParserFunc{
	reflect.TypeOf(time.Duration(0)): parseDuration,
	reflect.TypeOf([]string{}):       parseList,
}

// ApplyEnvironment overrides the target's fields tagged with `env:"NAME"`
// with the values of the set environment variables. Nested structs are
// walked, nil struct pointers are left untouched so only the sections
// loaded from the config files are overridden.
func ApplyEnvironment(target interface{}) error {
	return env.ParseWithOptions(target, env.Options{
		FuncMap: environmentParsers,
	})
}

func parseDuration(value string) (interface{}, error) {
	if d, err := time.ParseDuration(value); err == nil {
		return d, nil
	}
	seconds, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return nil, err
	}
	return time.Duration(seconds) * time.Second, nil
}

func parseList(value string) (interface{}, error) {
	items := make([]string, 0)
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); len(item) > 0 {
			items = append(items, item)
		}
	}
	return items, nil
}

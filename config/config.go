// Package config adds support for loading configuration from multiple yaml
// files, overlayed by the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"

	log "github.com/sirupsen/logrus"

	"github.com/go-playground/validator/v10"
	"github.com/imdario/mergo"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// LoadConfiguration merges the provided yaml files into the target, the
// later files overriding the earlier ones. Missing files are skipped, so
// that the configuration may come from the environment alone.
func LoadConfiguration(configFiles []string, target interface{}) error {
	for _, configFilePath := range configFiles {
		rawContent, err := os.ReadFile(configFilePath)
		if errors.Is(err, os.ErrNotExist) {
			log.WithFields(log.Fields{"File": configFilePath}).Warn("Config file not found, skipping")
			continue
		}
		if err != nil {
			return err
		}
		log.WithFields(log.Fields{"File": configFilePath}).Info("Parsing config file")
		cfg := newZeroFor(target)
		err = yaml.Unmarshal(rawContent, cfg)
		if err != nil {
			return err
		}
		err = mergo.Merge(target, cfg, mergo.WithOverride)
		if err != nil {
			return err
		}

	}
	return nil
}

// When loading YAML we need a zero value of a specific type in order to drive the parsing, but YAML parser does not
// support deep merging (it will just override at the top level) - so `mergo` is used.
// So this means that we now need a `target` zero value for each of the config files, but we like to keep the public API
// which mimics that of YAML (and JSON parsing). Thus the need for a function that will take a pointer to an arbitrary
// struct type and produce a pointer to a new zero value for that type.
// WARNING: this will crash if passed and interface value to something other than a pointer
func newZeroFor(target interface{}) interface{} {
	return reflect.New(reflect.TypeOf(target).Elem()).Interface()
}

// LoadEnvironment loads the variables from the provided dotenv files into the
// process environment. Variables already set are not overridden and
// missing files are skipped.
func LoadEnvironment(envFiles ...string) error {
	for _, f := range envFiles {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("could not load env file %s: %v", f, err)
		}
		log.WithFields(log.Fields{"File": f}).Info("Loaded env file")
	}
	return nil
}

// ValidateConfiguration takes (should take) a struct and validates its fields against predefined `validate` tags.
// The underlying validate.Struct method returns two types of errors. validator.InvalidValidationError for when the
// validation breaks, e.g. when a wrong type is passed as the argument (check validate.StructCtx). In this case, we wrap
// things with a plain error. The other case are actual validation errors. In this case a validator.ValidationErrors is
// returned, meaning our abstraction leaks and the assumption/recommendation is to use only error's Error() method,
// i.e. not to resort to type assertions on the returned instance.
func ValidateConfiguration(target interface{}) error {
	validate := validator.New()
	err := validate.Struct(target)
	if _, ok := err.(*validator.InvalidValidationError); ok {
		return fmt.Errorf("could not validate input (%v): %v", target, err)
	}
	return err
}

// LoadAndValidateConfiguration is a convenience method that loads the yaml files,
// overlays the environment and validates the result. Make sure to always check
// for errors returned, certain fields might be loaded while others could fail.
func LoadAndValidateConfiguration(configFiles []string, target interface{}) (err error) {
	err = LoadConfiguration(configFiles, target)
	if err != nil {
		return
	}
	err = ApplyEnvironment(target)
	if err != nil {
		return
	}
	err = ValidateConfiguration(target)
	return
}

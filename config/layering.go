package config

import (
	"encoding/json"
	"log"

	"github.com/kelseyhightower/envconfig"
)

var baseGuardConfig *GuardConfig

func init() {
	buildBaseGuardConfig()
}

func buildBaseGuardConfig() {
	baseGuardConfig = &GuardConfig{}
	err := envconfig.Process("ss_guard", baseGuardConfig)
	if err != nil {
		log.Fatal(err)
	}
}

// NewGuardConfigForJSON - applies a (possibly empty) JSON overlay on top of the instance guard config.
func NewGuardConfigForJSON(configJson []byte) (*GuardConfig, error) {
	return newGuardConfigForJSONWithBase(baseGuardConfig, configJson)
}

func newGuardConfigForJSONWithBase(base *GuardConfig, configJson []byte) (*GuardConfig, error) {
	overlay, err := base.Clone()
	if err != nil {
		return nil, err
	}
	if len(configJson) > 0 && string(configJson) != "{}" && string(configJson) != "null" {
		err = json.Unmarshal(configJson, overlay)
		if err != nil {
			return nil, err
		}
	}
	return overlay, nil
}

// NewDefaultGuardConfig - the compiled-in defaults, ignoring the process environment.
func NewDefaultGuardConfig() (*GuardConfig, error) {
	cnf := &GuardConfig{}
	err := envconfig.Process("not_the_normal_prefix_to_prevent_picking_up_live_env_values__if_you_set_this_then_please_do_not_do_that", cnf)
	return cnf, err
}

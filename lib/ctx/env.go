package ctx

import (
	convCfg "github.com/sofmon/actuator/lib/cfg"
)

type Environment string

const (
	EnvironmentProduction Environment = "production"

	configKeyEnvironment convCfg.ConfigKey = "environment"
)

func getEnv() Environment {
	envStr, err := convCfg.String(configKeyEnvironment)
	if err != nil || envStr == "" {
		// safer to assume 'production' when the environment is not configured
		return EnvironmentProduction
	}
	return Environment(envStr)
}

func (ctx Context) Environment() Environment {
	env, _ := ctx.Value(contextKeyEnv).(Environment)
	return env
}

func (ctx Context) IsProdEnv() bool {
	return ctx.Environment() == EnvironmentProduction
}

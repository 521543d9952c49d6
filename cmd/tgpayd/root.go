package main

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

const timeoutKey = "timeout"

// EnvReplacer replaces `-` to `_`.
// This is used to map flag like `--my-param` to environment variables like `MY_PARAM`.
var envReplacer = strings.NewReplacer("-", "_")

func init() {
	viper.SetEnvPrefix("TGPAY")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(envReplacer)
	viper.SetDefault(timeoutKey, 10*time.Second)
}

// commandTimeout bounds one-shot commands, overridable with TGPAY_TIMEOUT.
func commandTimeout() time.Duration {
	timeout := viper.GetDuration(timeoutKey)
	if timeout <= 0 {
		return 10 * time.Second
	}
	return timeout
}
